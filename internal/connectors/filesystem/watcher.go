package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/logger"
)

// DefaultDebounce coalesces bursts of writes into one batch.
const DefaultDebounce = 2 * time.Second

// ErrNoWatchRoots is returned when none of the configured roots exist.
var ErrNoWatchRoots = errors.New("no watchable roots")

// WatchConfig configures a Watcher.
type WatchConfig struct {
	// Roots are watched recursively. Missing roots are skipped.
	Roots []string

	// Exts limits which file changes are reported. Empty accepts all.
	// New directories are always reported.
	Exts []string

	// SkipHidden ignores dot-prefixed files and directories below a root.
	SkipHidden bool

	// Debounce is how long the watcher waits for quiet before emitting.
	Debounce time.Duration
}

// Watcher reports batches of changed file paths under a set of roots.
type Watcher struct {
	fsw      *fsnotify.Watcher
	roots    []string
	accept   map[string]struct{}
	hidden   bool
	debounce time.Duration
}

// NewWatcher creates a watcher and registers every directory under the
// existing roots.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		accept:   extensionSet(cfg.Exts),
		hidden:   cfg.SkipHidden,
		debounce: cfg.Debounce,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	for _, root := range cfg.Roots {
		if root == "" || !isDir(root) {
			continue
		}
		root = absRoot(root)
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
		w.roots = append(w.roots, root)
	}
	if len(w.roots) == 0 {
		_ = fsw.Close()
		return nil, ErrNoWatchRoots
	}

	return w, nil
}

// Roots returns the roots being watched.
func (w *Watcher) Roots() []string {
	return w.roots
}

// Watch emits sorted batches of changed paths until ctx is cancelled,
// then closes the channel and the underlying watcher.
func (w *Watcher) Watch(ctx context.Context) <-chan []string {
	out := make(chan []string, 1)

	go func() {
		defer close(out)
		defer func() { _ = w.fsw.Close() }()

		pending := make(map[string]struct{})
		timer := time.NewTimer(w.debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return

			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.handle(event) {
					continue
				}
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)

			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				batch := make([]string, 0, len(pending))
				for p := range pending {
					batch = append(batch, p)
				}
				sort.Strings(batch)
				clear(pending)

				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close stops the watcher without waiting for Watch to drain.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handle watches newly created directories and reports whether the
// event should be part of the next batch.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if w.hidden && w.isHiddenPath(event.Name) {
		return false
	}

	// A directory moved in may already hold files, so it counts as a change.
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			logger.Warn("Failed to watch new directory %s: %v", event.Name, err)
		}
		return true
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	if len(w.accept) == 0 {
		return true
	}
	_, ok := w.accept[domain.ExtOf(event.Name)]
	return ok
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Debug("Not watching %s: %v", path, walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.hidden && isHiddenName(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// isHiddenPath checks the part of path below its watched root.
func (w *Watcher) isHiddenPath(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			continue
		}
		return isHidden(rel)
	}
	return isHiddenName(filepath.Base(path))
}
