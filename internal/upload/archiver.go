// Package upload archives submitted originals to object storage, keyed by
// content hash. The archive copy survives rejection cascades and is the
// source for admin-facing original downloads.
package upload

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/Alex1-1-1/world-fastest-punch/internal/hash"
)

var tracer = otel.Tracer(
	"github.com/Alex1-1-1/world-fastest-punch/internal/upload",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Archiver

// Generic file persistence interface
type Archiver interface {
	// Create / Overwrite file contents by `key` (blobName)
	Store(ctx context.Context, reader io.ReadSeeker, length int64, key string) error
	// Check if a file exists (focused on preventing archiving the same file multiple times not authoritative existence)
	//
	// May always return false
	Exists(ctx context.Context, key string) (bool, error)
	// Provide an identifier for where files are being archived to. Useful for logging and auditing purposes.
	StoreIdentifier(ctx context.Context) (string, error)
	// Anonymous, readonly, internet accessible URL for downloading the file
	PresignedReadURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

// Archives a buffer where the `key` will be the hash of the contents of `reader` (CAS)
//
// Will:
// 1. seek to 0 so only pass in a buffer you want completely archived
// 2. not store if a file with the same hash already exists
func Hashed(
	ctx context.Context,
	a Archiver,
	reader io.ReadSeeker,
	length int64,
) (string, error) {
	ctx, span := tracer.Start(ctx, "ArchiveHashed")
	defer span.End()

	_, err := reader.Seek(0, io.SeekStart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seek to start")
		return "", err
	}

	hashedContent, err := hash.Reader(ctx, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to hash reader")
		return "", err
	}

	exists, err := a.Exists(ctx, hashedContent)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check if file exists")
		return "", err
	}

	if exists {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "found existing file")
		return hashedContent, nil
	}

	_, err = reader.Seek(0, io.SeekStart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seek to start")
		return "", err
	}

	err = a.Store(ctx, reader, length, hashedContent)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store file")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "archived file by hash")
	return hashedContent, nil
}
