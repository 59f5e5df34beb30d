package storage

import (
	"context"
	"crypto/sha1" // #nosec G505 -- required by the Cloudinary signature scheme
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

// Ensure CloudinaryStore implements MediaStore interface.
var _ MediaStore = (*CloudinaryStore)(nil)

const (
	// 600x600 center crop with automatic gravity.
	thumbnailTransform = "c_fill,g_auto,h_600,w_600"
	// Logo overlay anchored south-east: 20px offsets, 60% opacity, 120px wide.
	watermarkTransformFmt = "l_%s,g_south_east,x_20,y_20,o_60,w_120"
)

// Cloudinary backed media store. Only the canonical original is ever
// uploaded; thumbnail and watermark URLs are generated per request as
// transformations of it, so no derivative files exist anywhere.
type CloudinaryStore struct {
	client       *http.Client
	cloudName    string
	apiKey       string
	apiSecret    string
	logoPublicID string
	uploadURL    string
	deliveryURL  string
}

type CloudinaryOption func(*CloudinaryStore)

// WithEndpoints overrides the Cloudinary API and delivery hosts. Used by
// tests to point the store at a stub server.
func WithEndpoints(uploadURL, deliveryURL string) CloudinaryOption {
	return func(s *CloudinaryStore) {
		if uploadURL != "" {
			s.uploadURL = uploadURL
		}
		if deliveryURL != "" {
			s.deliveryURL = deliveryURL
		}
	}
}

func NewCloudinaryStore(
	cloudName, apiKey, apiSecret, logoPublicID string,
	opts ...CloudinaryOption,
) *CloudinaryStore {
	s := &CloudinaryStore{
		client:       &http.Client{Timeout: 30 * time.Second},
		cloudName:    cloudName,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		logoPublicID: logoPublicID,
		uploadURL:    fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloudName),
		deliveryURL:  fmt.Sprintf("https://res.cloudinary.com/%s/image/upload", cloudName),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put uploads the original under ref as its public id.
func (s *CloudinaryStore) Put(
	ctx context.Context,
	ref string,
	reader io.Reader,
	length int64,
	contentType string,
) error {
	ctx, span := tracer.Start(ctx, "CloudinaryStore.Put", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int64("length", length),
	))
	defer span.End()

	publicID := publicIDForRef(ref)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	body := &strings.Builder{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"api_key":   s.apiKey,
		"public_id": publicID,
		"timestamp": timestamp,
		"signature": s.sign(publicID, timestamp),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to build upload form")
			return err
		}
	}

	part, err := writer.CreateFormFile("file", publicID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build upload form")
		return err
	}
	if _, err := io.Copy(part, reader); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy image into upload form")
		return err
	}
	if err := writer.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to finish upload form")
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.uploadURL,
		strings.NewReader(body.String()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build upload request")
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("cloudinary upload returned status %d: %s", resp.StatusCode, respBody)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload rejected")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded image")
	return nil
}

// URLFor generates a delivery URL for the requested derivative kind as a
// per-request transformation of the canonical id. Nothing is stored.
func (s *CloudinaryStore) URLFor(
	_ context.Context,
	ref string,
	kind types.DerivativeKind,
) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty asset reference")
	}

	publicID := publicIDForRef(ref)

	switch kind {
	case types.KindThumbnail:
		return fmt.Sprintf("%s/%s/%s", s.deliveryURL, thumbnailTransform, publicID), nil
	case types.KindWatermarked:
		transform := fmt.Sprintf(watermarkTransformFmt, s.logoPublicID)
		return fmt.Sprintf("%s/%s/%s", s.deliveryURL, transform, publicID), nil
	default:
		return fmt.Sprintf("%s/%s", s.deliveryURL, publicID), nil
	}
}

// Cloudinary public ids carry no file extension.
func publicIDForRef(ref string) string {
	if idx := strings.LastIndex(ref, "."); idx > strings.LastIndex(ref, "/") {
		return ref[:idx]
	}

	return ref
}

// Request signature per the Cloudinary upload API: the sorted parameter
// string followed by the API secret, SHA-1 hex encoded.
func (s *CloudinaryStore) sign(publicID, timestamp string) string {
	toSign := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.apiSecret)
	sum := sha1.Sum([]byte(toSign)) // #nosec G401
	return hex.EncodeToString(sum[:])
}
