package driven

import (
	"context"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// RecordStore persists document and image records.
// There is no uniqueness constraint on file path; callers dedup through the ledger.
type RecordStore interface {
	// AddDocument stores a new document and returns its ID.
	AddDocument(ctx context.Context, doc *domain.DocumentRecord) (string, error)

	// AddImage stores a new image and returns its ID.
	AddImage(ctx context.Context, img *domain.ImageRecord) (string, error)

	// ListDocuments returns a page of documents ordered by creation time.
	// A page shorter than limit is the last one.
	ListDocuments(ctx context.Context, limit, offset int) ([]domain.DocumentRecord, error)

	// ListImages returns a page of images ordered by creation time.
	ListImages(ctx context.Context, limit, offset int) ([]domain.ImageRecord, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// CountImages returns the number of stored images.
	CountImages(ctx context.Context) (int, error)
}
