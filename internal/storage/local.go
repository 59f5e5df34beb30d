package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

// Ensure LocalStore implements MediaStore interface.
var _ MediaStore = (*LocalStore)(nil)

// Filesystem backed media store. References are paths relative to the media
// root; URLs are the public base URL joined with the path. Derivatives are
// separate files written by the derivation service.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalStore) Put(
	ctx context.Context,
	ref string,
	reader io.Reader,
	length int64,
	contentType string,
) error {
	_, span := tracer.Start(ctx, "LocalStore.Put", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int64("length", length),
		attribute.String("contentType", contentType),
	))
	defer span.End()

	clean, err := s.cleanRef(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected unsafe ref")
		return err
	}

	path := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create media directory")
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create media file")
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write media file")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wrote media file")
	return nil
}

// URLFor joins the base URL with the stored path. The derivative kind is
// irrelevant here: every stored file already is what it is.
func (s *LocalStore) URLFor(
	_ context.Context,
	ref string,
	_ types.DerivativeKind,
) (string, error) {
	clean, err := s.cleanRef(ref)
	if err != nil {
		return "", err
	}

	return s.baseURL + "/" + filepath.ToSlash(clean), nil
}

// Keeps refs inside the media root.
func (s *LocalStore) cleanRef(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty asset reference")
	}

	clean := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset reference %q escapes the media root", ref)
	}

	return clean, nil
}
