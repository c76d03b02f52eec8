package driving

import (
	"context"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// IngestService turns files and inline content into stored records.
type IngestService interface {
	// Initialise seeds the dedup ledger from the record store.
	// Must succeed before any other call.
	Initialise(ctx context.Context) error

	// IngestOne stores a document from inline content or a file path.
	// Empty extractions are reported as IngestResult.Success=false, not as errors.
	IngestOne(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestImage stores an image record. Empty extracted text is valid.
	IngestImage(ctx context.Context, img domain.ImageData) (*domain.IngestResult, error)

	// IngestImagePath inspects, recognises and stores the image at path.
	// OCR failures are recorded on the record rather than returned.
	IngestImagePath(ctx context.Context, path string) (*domain.IngestResult, error)

	// ScanAndIngestAll scans every configured root and ingests unseen files.
	// Returns a result with Skipped=true if a scan is already running.
	ScanAndIngestAll(ctx context.Context) (*domain.ScanResult, error)

	// Stats returns record counts and scan state.
	Stats(ctx context.Context) (*domain.Stats, error)
}
