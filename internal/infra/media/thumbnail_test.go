package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailFitsInsideBox(t *testing.T) {
	out, contentType, err := Thumbnailer{Size: 64}.Thumbnail(encodePNG(t, 400, 200))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	out, _, err := Thumbnailer{Size: 64}.Thumbnail(encodePNG(t, 10, 20))
	require.NoError(t, err)
	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 10, decoded.Bounds().Dx())
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, _, err := Thumbnailer{}.Thumbnail([]byte("not an image"))
	assert.Error(t, err)
}
