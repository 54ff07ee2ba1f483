package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

func pngFixture(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestRenderScalesDownKeepingAspect(t *testing.T) {
	th := NewThumbnailer(0, 0)

	out, err := th.Render(pngFixture(t, 600, 300), WidthSmall)
	require.NoError(t, err)

	assert.Equal(t, 150, out.Width)
	assert.Equal(t, 75, out.Height)
	assert.Equal(t, 600, out.OriginalWidth)
	assert.Equal(t, 300, out.OriginalHeight)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 150, cfg.Width)
}

func TestRenderNeverUpscales(t *testing.T) {
	th := NewThumbnailer(0, 0)

	out, err := th.Render(pngFixture(t, 40, 20), WidthLarge)
	require.NoError(t, err)
	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)

	_, err = jpeg.Decode(bytes.NewReader(out.Data))
	assert.NoError(t, err)
}

func TestRenderClampsToMaxWidth(t *testing.T) {
	th := NewThumbnailer(200, 90)

	out, err := th.Render(pngFixture(t, 1000, 500), 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Width)
}

func TestRenderRejectsNonImages(t *testing.T) {
	th := NewThumbnailer(0, 0)

	_, err := th.Render(strings.NewReader("just some text"), 0)
	assert.ErrorIs(t, err, vaulterr.ErrValidation)
}
