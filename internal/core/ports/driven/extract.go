package driven

import (
	"context"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// PDFExtractor reads the embedded text layer of a PDF.
type PDFExtractor interface {
	// Extract returns the text and page count.
	// Returns domain.ErrNoTextLayer when the PDF parses but holds no text.
	Extract(ctx context.Context, data []byte) (*domain.PDFText, error)
}

// ImageInspector reads image headers without decoding pixel data.
type ImageInspector interface {
	// Inspect returns the dimensions and format of the image at path.
	Inspect(path string) (*domain.ImageInfo, error)
}
