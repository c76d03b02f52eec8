package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driven.FileScanner = (*Scanner)(nil)

// Scanner walks directory roots for files with accepted extensions.
type Scanner struct {
	skipHidden bool
	walkDir    func(root string, fn fs.WalkDirFunc) error
}

// NewScanner creates a scanner. Dot-prefixed files and directories below
// each root are skipped when skipHidden is set.
func NewScanner(skipHidden bool) *Scanner {
	return &Scanner{skipHidden: skipHidden, walkDir: filepath.WalkDir}
}

// Scan walks each existing root and returns one group per root.
// Only a cancelled context aborts the scan.
func (s *Scanner) Scan(ctx context.Context, roots []string, exts []string) ([]domain.ScanGroup, error) {
	accept := extensionSet(exts)
	var groups []domain.ScanGroup

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return groups, err
		}
		if root == "" {
			continue
		}
		root = absRoot(root)

		info, err := os.Stat(root)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("Skipping missing root %s", root)
			continue
		case err != nil:
			groups = append(groups, domain.ScanGroup{
				Name:   root,
				Root:   root,
				Errors: []domain.ScanError{{Directory: root, Error: err.Error()}},
			})
			continue
		case !info.IsDir():
			logger.Debug("Skipping root %s: not a directory", root)
			continue
		}

		group, err := s.walk(ctx, root, root, accept)
		if err != nil {
			return groups, err
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// absRoot resolves root against the working directory so that file paths,
// and with them ledger keys, do not depend on where the process started.
func absRoot(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}

// walk collects accepted files under root into a group called name.
func (s *Scanner) walk(ctx context.Context, name, root string, accept map[string]struct{}) (domain.ScanGroup, error) {
	group := domain.ScanGroup{Name: name, Root: root}

	err := s.walkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if d == nil || d.IsDir() {
				group.Errors = append(group.Errors, domain.ScanError{Directory: path, Error: walkErr.Error()})
				if d != nil {
					return filepath.SkipDir
				}
				return nil
			}
			group.Errors = append(group.Errors, domain.ScanError{File: path, Error: walkErr.Error()})
			return nil
		}

		if path != root && s.skipHidden && isHiddenName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := domain.ExtOf(path)
		if _, ok := accept[ext]; !ok {
			return nil
		}

		// Stat follows symlinks so linked files are picked up at their target size.
		info, err := os.Stat(path)
		if err != nil {
			group.Errors = append(group.Errors, domain.ScanError{File: path, Error: err.Error()})
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		group.Files = append(group.Files, fileRecord(path, ext, info))
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return group, ctx.Err()
	}
	if err != nil {
		group.Errors = append(group.Errors, domain.ScanError{Directory: root, Error: err.Error()})
	}

	logger.Debug("Scanned %s: %d files, %d errors", root, len(group.Files), len(group.Errors))
	return group, nil
}

// fileRecord builds a candidate from stat info. Creation time is not
// portable, so it falls back to the modification time.
func fileRecord(path, ext string, info fs.FileInfo) domain.FileRecord {
	return domain.FileRecord{
		Path:       path,
		Ext:        ext,
		Size:       info.Size(),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		if ext = domain.NormalizeExt(ext); ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// isHidden reports whether any component of a relative path is hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if isHiddenName(part) {
			return true
		}
	}
	return false
}
