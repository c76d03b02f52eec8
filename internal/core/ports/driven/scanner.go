package driven

import (
	"context"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// FileScanner enumerates candidate files under directory roots.
type FileScanner interface {
	// Scan walks each root and returns one group per existing root.
	// Missing roots are skipped. Unreadable entries are reported in the
	// group's Errors and do not stop the walk.
	Scan(ctx context.Context, roots []string, exts []string) ([]domain.ScanGroup, error)
}

// PhotoScanner enumerates images held in photo library bundles.
type PhotoScanner interface {
	// Scan returns one group per album or library location found.
	Scan(ctx context.Context) ([]domain.ScanGroup, error)
}
