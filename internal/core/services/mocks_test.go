package services

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

// --- Mock implementations for ingestion testing ---

// mockRecordStore implements driven.RecordStore for testing.
type mockRecordStore struct {
	mu       sync.Mutex
	docs     []domain.DocumentRecord
	images   []domain.ImageRecord
	nextID   int
	addErr   error
	listErr  error
	countErr error
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{}
}

func (m *mockRecordStore) AddDocument(_ context.Context, doc *domain.DocumentRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return "", m.addErr
	}
	m.nextID++
	rec := *doc
	rec.ID = fmt.Sprintf("doc-%d", m.nextID)
	rec.CreatedAt = time.Now()
	m.docs = append(m.docs, rec)
	return rec.ID, nil
}

func (m *mockRecordStore) AddImage(_ context.Context, img *domain.ImageRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return "", m.addErr
	}
	m.nextID++
	rec := *img
	rec.ID = fmt.Sprintf("img-%d", m.nextID)
	rec.CreatedAt = time.Now()
	m.images = append(m.images, rec)
	return rec.ID, nil
}

func (m *mockRecordStore) ListDocuments(_ context.Context, limit, offset int) ([]domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return page(m.docs, limit, offset), nil
}

func (m *mockRecordStore) ListImages(_ context.Context, limit, offset int) ([]domain.ImageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return page(m.images, limit, offset), nil
}

func (m *mockRecordStore) CountDocuments(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs), m.countErr
}

func (m *mockRecordStore) CountImages(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images), m.countErr
}

func (m *mockRecordStore) documents() []domain.DocumentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.docs)
}

func (m *mockRecordStore) imageRecords() []domain.ImageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.images)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return slices.Clone(items[offset:end])
}

// mockOCR implements driven.OCRService for testing.
type mockOCR struct {
	available bool
	text      string
	units     int
	err       error
	calls     atomic.Int32

	mu       sync.Mutex
	received [][]byte
}

func (m *mockOCR) Available() bool { return m.available }

func (m *mockOCR) Recognize(_ context.Context, content io.Reader) (*domain.OCRResult, error) {
	m.calls.Add(1)
	if !m.available {
		return nil, domain.ErrOCRUnavailable
	}
	data, _ := io.ReadAll(content)
	m.mu.Lock()
	m.received = append(m.received, data)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	units := m.units
	if units == 0 {
		units = 1
	}
	return &domain.OCRResult{Text: m.text, Units: units, Raw: map[string]any{"status": "succeeded"}}, nil
}

// mockPDF implements driven.PDFExtractor for testing.
type mockPDF struct {
	text  string
	pages int
	err   error
}

func (m *mockPDF) Extract(_ context.Context, _ []byte) (*domain.PDFText, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.PDFText{Text: m.text, Pages: m.pages}, nil
}

// mockInspector implements driven.ImageInspector for testing.
type mockInspector struct {
	info *domain.ImageInfo
	err  error
}

func (m *mockInspector) Inspect(_ string) (*domain.ImageInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

// mockFileScanner implements driven.FileScanner for testing.
// Document and image scans are told apart by whether ".pdf" is accepted.
type mockFileScanner struct {
	docGroups   []domain.ScanGroup
	imageGroups []domain.ScanGroup
	err         error
	calls       atomic.Int32

	// panicOnce makes the first document scan panic.
	panicOnce atomic.Bool

	// entered is signalled and release awaited on every document scan when set.
	entered chan struct{}
	release chan struct{}
}

func (m *mockFileScanner) Scan(ctx context.Context, _ []string, exts []string) ([]domain.ScanGroup, error) {
	m.calls.Add(1)
	if !slices.Contains(exts, ".pdf") {
		return m.imageGroups, m.err
	}
	if m.panicOnce.CompareAndSwap(true, false) {
		panic("scanner exploded")
	}
	if m.entered != nil {
		m.entered <- struct{}{}
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.docGroups, m.err
}

// mockPhotoScanner implements driven.PhotoScanner for testing.
type mockPhotoScanner struct {
	groups []domain.ScanGroup
	err    error
}

func (m *mockPhotoScanner) Scan(_ context.Context) ([]domain.ScanGroup, error) {
	return m.groups, m.err
}

// Ensure mocks implement interfaces
var (
	_ driven.RecordStore    = (*mockRecordStore)(nil)
	_ driven.OCRService     = (*mockOCR)(nil)
	_ driven.PDFExtractor   = (*mockPDF)(nil)
	_ driven.ImageInspector = (*mockInspector)(nil)
	_ driven.FileScanner    = (*mockFileScanner)(nil)
	_ driven.PhotoScanner   = (*mockPhotoScanner)(nil)
)
