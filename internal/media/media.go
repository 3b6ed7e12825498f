// Package media provides attachment helpers: mimetype detection, image
// normalization, and voice-note probing.
package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

// MaxImageDimension bounds the longest side of an image before it is sent to
// an image-to-image provider.
const MaxImageDimension = 1568

const jpegQuality = 85

// DetectMime returns the MIME type of data by magic-byte sniffing.
func DetectMime(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsImage reports whether data sniffs as an image format.
func IsImage(data []byte) bool {
	m := mimetype.Detect(data)
	for ; m != nil; m = m.Parent() {
		if m.Is("image/png") || m.Is("image/jpeg") || m.Is("image/webp") || m.Is("image/gif") {
			return true
		}
	}
	return false
}

// NormalizeImage decodes data and, if either dimension exceeds
// MaxImageDimension, resizes it to fit. Output is re-encoded as JPEG.
func NormalizeImage(data []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxImageDimension || bounds.Dy() > MaxImageDimension {
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
		L_debug("media: image resized",
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// Dimensions decodes just the image config and returns width and height.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
