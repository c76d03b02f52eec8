package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/logger"
)

// Ledger is the in-memory set of file paths already indexed.
// The automatic scan consults it before extraction; manual ingestion does not.
// It holds no state of its own beyond what can be rebuilt from the store.
type Ledger struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{paths: make(map[string]struct{})}
}

// Seed adds every path to the ledger.
func (l *Ledger) Seed(paths []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range paths {
		if key, ok := ledgerKey(p); ok {
			l.paths[key] = struct{}{}
		}
	}
}

// Contains reports whether path has been indexed.
func (l *Ledger) Contains(path string) bool {
	key, ok := ledgerKey(path)
	if !ok {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.paths[key]
	return found
}

// Record marks path as indexed.
func (l *Ledger) Record(path string) {
	key, ok := ledgerKey(path)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths[key] = struct{}{}
}

// Len returns the number of indexed paths.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.paths)
}

// ledgerKey cleans a path. Empty and placeholder paths are never tracked.
func ledgerKey(path string) (string, bool) {
	if path == "" || path == domain.PlaceholderPath {
		return "", false
	}
	return filepath.Clean(path), true
}

// SeedLedger rebuilds the ledger from every document and image path in the store.
// The store is paged with pageSize until a short page is returned, so no prior
// record is missed regardless of store size.
func SeedLedger(ctx context.Context, store driven.RecordStore, ledger *Ledger, pageSize int) error {
	if pageSize <= 0 {
		pageSize = domain.DefaultLedgerPageSize
	}

	docs := 0
	for offset := 0; ; offset += pageSize {
		page, err := store.ListDocuments(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("%w: list documents: %w", domain.ErrStoreUnavailable, err)
		}
		paths := make([]string, 0, len(page))
		for i := range page {
			paths = append(paths, page[i].FilePath)
		}
		ledger.Seed(paths)
		docs += len(page)
		if len(page) < pageSize {
			break
		}
	}

	images := 0
	for offset := 0; ; offset += pageSize {
		page, err := store.ListImages(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("%w: list images: %w", domain.ErrStoreUnavailable, err)
		}
		paths := make([]string, 0, len(page))
		for i := range page {
			paths = append(paths, page[i].FilePath)
		}
		ledger.Seed(paths)
		images += len(page)
		if len(page) < pageSize {
			break
		}
	}

	logger.Info("Ledger seeded: %d documents, %d images, %d unique paths", docs, images, ledger.Len())
	return nil
}
