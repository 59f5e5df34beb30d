package validator

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"

	// Register the formats accepted for uploads.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// MaxImageBytes is the upload size cap for submission originals.
const MaxImageBytes = 2 << 20

func ValidateImageSize(size int) bool {
	return size > 0 && size <= MaxImageBytes
}

// ValidateImageFormat checks that the bytes decode as JPEG, PNG or TIFF.
// When the header cannot be decoded at all, the file extension decides
// instead, matching the legacy validation order.
func ValidateImageFormat(data []byte, filename string) bool {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		switch format {
		case "jpeg", "png", "tiff":
			return true
		default:
			return false
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
		return true
	default:
		return false
	}
}
