package storage

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

var tracer = otel.Tracer(
	"github.com/Alex1-1-1/world-fastest-punch/internal/storage",
)

// MediaStore is the capability a storage backend offers: persist image bytes
// under a reference and resolve a reference to a retrievable URL. The backend
// is selected once at startup; components never branch on its concrete type.
//
// The two implementations have incompatible derivative semantics. LocalStore
// keeps thumbnail and watermark as separately stored files with their own
// references. CloudinaryStore stores only the canonical original and derives
// variants per request through URL transformations.
type MediaStore interface {
	// Put creates or overwrites the object named by ref.
	Put(ctx context.Context, ref string, reader io.Reader, length int64, contentType string) error
	// URLFor resolves an asset reference to a URL for the given derivative
	// kind. Backends that store derivatives separately ignore kind.
	URLFor(ctx context.Context, ref string, kind types.DerivativeKind) (string, error)
}

// ResolveDerivative resolves the URL for one derivative of a submission,
// applying the fallback policy: when no derivative reference was ever
// produced, the original reference is resolved instead (which yields the
// original's URL on the local backend and an on-demand transform on the
// remote one). Returns nil only when the original itself is absent. A missing
// optional derivative is a steady-state possibility, never an error.
func ResolveDerivative(
	ctx context.Context,
	store MediaStore,
	originalRef string,
	derivativeRef *string,
	kind types.DerivativeKind,
) *string {
	if originalRef == "" {
		return nil
	}

	ref := originalRef
	if derivativeRef != nil && *derivativeRef != "" {
		ref = *derivativeRef
	}

	resolved, err := store.URLFor(ctx, ref, kind)
	if err != nil {
		return nil
	}

	return &resolved
}
