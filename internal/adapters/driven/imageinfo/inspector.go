// Package imageinfo reads image dimensions and format from file headers.
package imageinfo

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

var _ driven.ImageInspector = (*Inspector)(nil)

// Inspector implements driven.ImageInspector with image.DecodeConfig.
// Pixel data is never decoded.
type Inspector struct{}

// NewInspector creates an image inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect returns the dimensions and format name ("jpeg", "png", ...) of the image at path.
func (i *Inspector) Inspect(path string) (*domain.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}

	return &domain.ImageInfo{
		Dimensions: domain.Dimensions{Width: cfg.Width, Height: cfg.Height},
		Format:     format,
	}, nil
}
