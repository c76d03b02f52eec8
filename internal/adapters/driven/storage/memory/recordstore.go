package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore keeps documents and images in insertion order.
type RecordStore struct {
	mu        sync.RWMutex
	documents []domain.DocumentRecord
	images    []domain.ImageRecord
	now       func() time.Time
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{now: time.Now}
}

// AddDocument stores a copy of doc and returns its new ID.
func (s *RecordStore) AddDocument(ctx context.Context, doc *domain.DocumentRecord) (string, error) {
	if doc == nil {
		return "", domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rec := *doc
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.documents = append(s.documents, rec)
	s.mu.Unlock()
	return rec.ID, nil
}

// AddImage stores a copy of img and returns its new ID.
func (s *RecordStore) AddImage(ctx context.Context, img *domain.ImageRecord) (string, error) {
	if img == nil {
		return "", domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rec := *img
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.images = append(s.images, rec)
	s.mu.Unlock()
	return rec.ID, nil
}

// ListDocuments returns a page of documents in insertion order.
func (s *RecordStore) ListDocuments(ctx context.Context, limit, offset int) ([]domain.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.documents, limit, offset), nil
}

// ListImages returns a page of images in insertion order.
func (s *RecordStore) ListImages(ctx context.Context, limit, offset int) ([]domain.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.images, limit, offset), nil
}

// CountDocuments returns the number of stored documents.
func (s *RecordStore) CountDocuments(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// CountImages returns the number of stored images.
func (s *RecordStore) CountImages(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images), nil
}

// window copies items[offset:offset+limit]. A non-positive limit means no limit.
func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
