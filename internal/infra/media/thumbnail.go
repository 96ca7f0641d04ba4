// Package media renders previews of uploaded listing images.
package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	applistings "rentlona/internal/app/handlers/listings"
)

const (
	defaultThumbnailSize = 320
	thumbnailQuality     = 80
)

// Thumbnailer fits images into a square box and re-encodes them as JPEG.
type Thumbnailer struct {
	Size int
}

func (t Thumbnailer) Thumbnail(data []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("media: decode: %w", err)
	}
	size := t.Size
	if size <= 0 {
		size = defaultThumbnailSize
	}
	bounds := img.Bounds()
	if bounds.Dx() > size || bounds.Dy() > size {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, "", fmt.Errorf("media: encode: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

var _ applistings.Thumbnailer = Thumbnailer{}
