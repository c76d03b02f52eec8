package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// OCRService recognises text in images and scanned documents.
type OCRService interface {
	// Available reports whether a provider is configured.
	// When false, Recognize always fails with domain.ErrOCRUnavailable.
	Available() bool

	// Recognize submits the content and waits for the job to reach a terminal state.
	// Returns domain.ErrOCRTimeout if the job outlives the poll budget and
	// *domain.OCRJobFailedError if the provider reports failure.
	Recognize(ctx context.Context, content io.Reader) (*domain.OCRResult, error)
}
