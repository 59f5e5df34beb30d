package upload

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure MinioArchiver implements Archiver interface.
var _ Archiver = (*MinioArchiver)(nil)

// Minio (S3) backed archiver
type MinioArchiver struct {
	client *minio.Client
	bucket string
}

func NewMinioArchiver(
	endpoint, id, secret string,
	ssl bool,
	bucket string,
) (*MinioArchiver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(id, secret, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, err
	}

	return &MinioArchiver{
		client: client,
		bucket: bucket,
	}, nil
}

func NewMinioArchiverFromClient(client *minio.Client, bucket string) *MinioArchiver {
	return &MinioArchiver{
		client: client,
		bucket: bucket,
	}
}

func (a *MinioArchiver) Store(
	ctx context.Context,
	reader io.ReadSeeker,
	length int64,
	key string,
) error {
	ctx, span := tracer.Start(ctx, "MinioArchiver.Store", trace.WithAttributes(
		attribute.String("key", key),
		attribute.Int64("length", length),
	))
	defer span.End()

	_, err := a.client.PutObject(ctx, a.bucket, key, reader, length, minio.PutObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put object")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "put object")
	return nil
}

func (a *MinioArchiver) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "MinioArchiver.Exists", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	_, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find object")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return false, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "statted object")
	return true, nil
}

func (a *MinioArchiver) StoreIdentifier(_ context.Context) (string, error) {
	return a.bucket, nil
}

func (a *MinioArchiver) PresignedReadURL(
	ctx context.Context,
	key string,
	duration time.Duration,
) (string, error) {
	ctx, span := tracer.Start(ctx, "MinioArchiver.PresignedReadURL", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("duration", duration.String()),
	))
	defer span.End()

	presigned, err := a.client.PresignedGetObject(ctx, a.bucket, key, duration, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get presigned url")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got presigned url")
	return presigned.String(), nil
}
