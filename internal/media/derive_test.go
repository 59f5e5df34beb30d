package media

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(_ context.Context, ref string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	s.objects[ref] = data
	return nil
}

func (s *memStore) URLFor(_ context.Context, ref string, _ types.DerivativeKind) (string, error) {
	return "http://example.test/" + ref, nil
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.White)

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))

	return buf.Bytes()
}

func TestDeriveProducesBoundedThumbnail(t *testing.T) {
	store := newMemStore()
	deriver, err := NewDeriver(store, "World Fastest Punch")
	require.NoError(t, err)

	result := deriver.Derive(context.Background(), "abc123", encodeJPEG(t, 4000, 2000))

	require.NoError(t, result.Thumbnail.Err)
	assert.Equal(t, "thumbnails/thumb_abc123.jpg", result.Thumbnail.Ref)

	thumb, err := imaging.Decode(bytes.NewReader(store.objects[result.Thumbnail.Ref]))
	require.NoError(t, err)

	bounds := thumb.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 150)
	assert.LessOrEqual(t, bounds.Dy(), 75)
}

func TestDeriveProducesWatermarkAtOriginalSize(t *testing.T) {
	store := newMemStore()
	deriver, err := NewDeriver(store, "World Fastest Punch")
	require.NoError(t, err)

	result := deriver.Derive(context.Background(), "abc123", encodeJPEG(t, 800, 600))

	require.NoError(t, result.Watermark.Err)
	assert.Equal(t, "watermarked/watermark_abc123.jpg", result.Watermark.Ref)

	marked, err := imaging.Decode(bytes.NewReader(store.objects[result.Watermark.Ref]))
	require.NoError(t, err)

	bounds := marked.Bounds()
	assert.Equal(t, 800, bounds.Dx())
	assert.Equal(t, 600, bounds.Dy())
}

func TestDeriveCaptionOverlaysTinyImage(t *testing.T) {
	store := newMemStore()
	deriver, err := NewDeriver(store, "World Fastest Punch")
	require.NoError(t, err)

	result := deriver.Derive(context.Background(), "tiny", encodeJPEG(t, 40, 40))

	assert.NoError(t, result.Thumbnail.Err)
	assert.NoError(t, result.Watermark.Err)
}

func TestDeriveUndecodableOriginal(t *testing.T) {
	store := newMemStore()
	deriver, err := NewDeriver(store, "World Fastest Punch")
	require.NoError(t, err)

	result := deriver.Derive(context.Background(), "abc123", []byte("not an image"))

	assert.Error(t, result.Thumbnail.Err)
	assert.Error(t, result.Watermark.Err)
	assert.Empty(t, result.Thumbnail.Ref)
	assert.Empty(t, result.Watermark.Ref)
	assert.Empty(t, store.objects)
}
