// Package preview renders JPEG thumbnails of stored images.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// Preset widths, in pixels.
const (
	WidthSmall  = 150
	WidthMedium = 400
	WidthLarge  = 800
)

// Thumbnail is an encoded preview together with the source dimensions.
type Thumbnail struct {
	Data           []byte
	Width, Height  int
	OriginalWidth  int
	OriginalHeight int
}

type Thumbnailer struct {
	maxWidth int
	quality  int
}

func NewThumbnailer(maxWidth, quality int) *Thumbnailer {
	if maxWidth <= 0 {
		maxWidth = WidthLarge
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Thumbnailer{maxWidth: maxWidth, quality: quality}
}

// Render decodes src and scales it to width, keeping the aspect ratio.
// width <= 0 selects WidthMedium. Images are never upscaled.
func (t *Thumbnailer) Render(src io.Reader, width int) (Thumbnail, error) {
	if width <= 0 {
		width = WidthMedium
	}
	if width > t.maxWidth {
		width = t.maxWidth
	}

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return Thumbnail{}, vaulterr.Validation("file is not a decodable image: %v", err)
	}

	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()

	var thumb image.Image = img
	if origWidth > width {
		thumb = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return Thumbnail{}, fmt.Errorf("encode thumbnail: %w", err)
	}

	return Thumbnail{
		Data:           buf.Bytes(),
		Width:          thumb.Bounds().Dx(),
		Height:         thumb.Bounds().Dy(),
		OriginalWidth:  origWidth,
		OriginalHeight: origHeight,
	}, nil
}
