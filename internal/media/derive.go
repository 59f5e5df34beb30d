// Package media produces the stored derivatives of a submission's original
// image: a bounded thumbnail and a captioned watermark copy. It is only wired
// up for the local storage backend; the remote backend derives variants on
// demand through URL transformations instead.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/Alex1-1-1/world-fastest-punch/internal/storage"
)

var tracer = otel.Tracer(
	"github.com/Alex1-1-1/world-fastest-punch/internal/media",
)

const (
	// Thumbnails fit within this square, preserving aspect ratio.
	thumbnailBound       = 150
	thumbnailJPEGQuality = 85
	watermarkJPEGQuality = 90
	watermarkMargin      = 20
	watermarkPadding     = 5
)

// Outcome of a single derivation attempt. A failed derivation leaves the ref
// empty; callers log the error and carry on, because a missing derivative is
// an accepted steady state.
type Outcome struct {
	Ref string
	Err error
}

type Result struct {
	Thumbnail Outcome
	Watermark Outcome
}

// Deriver generates thumbnail and watermark files from an uploaded original
// and writes them to the store, synchronously within the creating request.
type Deriver struct {
	store   storage.MediaStore
	caption string
	font    *opentype.Font
}

func NewDeriver(store storage.MediaStore, caption string) (*Deriver, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse watermark font: %w", err)
	}

	return &Deriver{
		store:   store,
		caption: caption,
		font:    parsed,
	}, nil
}

// Derive produces both derivatives for a submission. Failures never
// propagate: each Outcome carries its own error and the zero ref.
func (d *Deriver) Derive(ctx context.Context, submissionID string, original []byte) Result {
	ctx, span := tracer.Start(ctx, "Deriver.Derive", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
		attribute.Int("original.bytes", len(original)),
	))
	defer span.End()

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "original did not decode, skipping derivation")
		err = fmt.Errorf("failed to decode original: %w", err)
		return Result{
			Thumbnail: Outcome{Err: err},
			Watermark: Outcome{Err: err},
		}
	}

	result := Result{
		Thumbnail: d.thumbnail(ctx, submissionID, img),
		Watermark: d.watermark(ctx, submissionID, img),
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "derivation finished")
	return result
}

func (d *Deriver) thumbnail(ctx context.Context, submissionID string, img image.Image) Outcome {
	ctx, span := tracer.Start(ctx, "Deriver.thumbnail")
	defer span.End()

	thumb := imaging.Fit(img, thumbnailBound, thumbnailBound, imaging.Lanczos)

	var buf bytes.Buffer
	err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode thumbnail")
		return Outcome{Err: fmt.Errorf("failed to encode thumbnail: %w", err)}
	}

	ref := fmt.Sprintf("thumbnails/thumb_%s.jpg", submissionID)
	err = d.store.Put(ctx, ref, &buf, int64(buf.Len()), "image/jpeg")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store thumbnail")
		return Outcome{Err: fmt.Errorf("failed to store thumbnail: %w", err)}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored thumbnail")
	return Outcome{Ref: ref}
}

func (d *Deriver) watermark(ctx context.Context, submissionID string, img image.Image) Outcome {
	ctx, span := tracer.Start(ctx, "Deriver.watermark")
	defer span.End()

	marked, err := d.overlayCaption(img)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render watermark")
		return Outcome{Err: fmt.Errorf("failed to render watermark: %w", err)}
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, marked, imaging.JPEG, imaging.JPEGQuality(watermarkJPEGQuality))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode watermark")
		return Outcome{Err: fmt.Errorf("failed to encode watermark: %w", err)}
	}

	ref := fmt.Sprintf("watermarked/watermark_%s.jpg", submissionID)
	err = d.store.Put(ctx, ref, &buf, int64(buf.Len()), "image/jpeg")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store watermark")
		return Outcome{Err: fmt.Errorf("failed to store watermark: %w", err)}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored watermark")
	return Outcome{Ref: ref}
}

// overlayCaption draws the caption near the bottom-right corner over a
// semi-transparent black box so it stays legible on any background. The font
// size scales with the image: max(20, min(w,h)/20).
func (d *Deriver) overlayCaption(img image.Image) (image.Image, error) {
	base := imaging.Clone(img)
	bounds := base.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	size := max(20, min(width, height)/20)

	face, err := opentype.NewFace(d.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  base,
		Src:  image.White,
		Face: face,
	}

	metrics := face.Metrics()
	textWidth := drawer.MeasureString(d.caption).Ceil()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := width - textWidth - watermarkMargin
	y := height - textHeight - watermarkMargin

	box := image.Rect(
		x-watermarkPadding,
		y-watermarkPadding,
		x+textWidth+watermarkPadding,
		y+textHeight+watermarkPadding,
	)
	draw.Draw(
		base,
		box.Intersect(bounds),
		image.NewUniform(color.NRGBA{A: 128}),
		image.Point{},
		draw.Over,
	)

	drawer.Dot = fixed.P(x, y+metrics.Ascent.Ceil())
	drawer.DrawString(d.caption)

	return base, nil
}
