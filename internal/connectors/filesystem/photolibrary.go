package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/logger"
)

// Ensure PhotoLibrary implements the interface.
var _ driven.PhotoScanner = (*PhotoLibrary)(nil)

// Library locations and group names inside a pictures directory.
const (
	IPhotoLibraryDir   = "iPhoto Library"
	AlbumCatalogFile   = "AlbumData.xml"
	MastersDir         = "Masters"
	PhotosLibraryDir   = "Photos Library.photoslibrary"
	PhotosOriginalsDir = "originals"

	GroupIPhotoLibrary   = "iPhoto Library"
	GroupMasters         = "Masters"
	GroupPhotosOriginals = "Photos Library Originals"
	GroupPictures        = "Pictures Directory"
	UnknownAlbum         = "Unknown Album"
)

// albumCatalog is the subset of AlbumData.xml homenet reads.
// Older exports keep albums under "List", newer ones under "List of Albums".
type albumCatalog struct {
	List         []albumEntry           `plist:"List"`
	ListOfAlbums []albumEntry           `plist:"List of Albums"`
	Masters      map[string]masterImage `plist:"Master Image List"`
}

type albumEntry struct {
	AlbumName string   `plist:"AlbumName"`
	KeyList   []string `plist:"KeyList"`
}

type masterImage struct {
	ImagePath string `plist:"ImagePath"`
}

// PhotoLibrary enumerates images in a pictures directory, including
// iPhoto albums and the Photos library originals.
type PhotoLibrary struct {
	root    string
	scanner *Scanner
}

// NewPhotoLibrary creates a photo library scanner rooted at root
// (normally ~/Pictures). An empty root disables it.
func NewPhotoLibrary(root string, scanner *Scanner) *PhotoLibrary {
	if scanner == nil {
		scanner = NewScanner(true)
	}
	return &PhotoLibrary{root: root, scanner: scanner}
}

// Root returns the pictures directory being scanned.
func (p *PhotoLibrary) Root() string {
	return p.root
}

// Scan returns iPhoto album groups first, then the Masters and Photos
// originals groups, then the whole pictures directory. A file can appear
// in several groups; the first group it appears in wins downstream.
func (p *PhotoLibrary) Scan(ctx context.Context) ([]domain.ScanGroup, error) {
	if p.root == "" {
		return nil, nil
	}
	root := absRoot(p.root)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		logger.Debug("Photo library root %s not found", root)
		return nil, nil
	}

	accept := extensionSet(domain.ImageExtensions())
	var groups []domain.ScanGroup

	iphoto := filepath.Join(root, IPhotoLibraryDir)
	if isDir(iphoto) {
		albums, err := p.scanAlbums(ctx, iphoto, accept)
		if err != nil {
			return groups, err
		}
		groups = append(groups, albums...)

		if masters := filepath.Join(iphoto, MastersDir); isDir(masters) {
			group, err := p.scanner.walk(ctx, GroupMasters, masters, accept)
			if err != nil {
				return groups, err
			}
			groups = append(groups, group)
		}
	}

	if originals := filepath.Join(root, PhotosLibraryDir, PhotosOriginalsDir); isDir(originals) {
		group, err := p.scanner.walk(ctx, GroupPhotosOriginals, originals, accept)
		if err != nil {
			return groups, err
		}
		groups = append(groups, group)
	}

	group, err := p.scanner.walk(ctx, GroupPictures, root, accept)
	if err != nil {
		return groups, err
	}
	groups = append(groups, group)

	return groups, nil
}

// scanAlbums turns each album in the catalog into a group of its
// existing master images. A missing catalog yields no groups; an
// unreadable one yields a single group carrying the error.
func (p *PhotoLibrary) scanAlbums(ctx context.Context, library string, accept map[string]struct{}) ([]domain.ScanGroup, error) {
	catalogPath := filepath.Join(library, AlbumCatalogFile)
	catalog, err := readAlbumCatalog(catalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		logger.Warn("Failed to read %s: %v", catalogPath, err)
		return []domain.ScanGroup{{
			Name:   GroupIPhotoLibrary,
			Root:   library,
			Errors: []domain.ScanError{{File: catalogPath, Error: err.Error()}},
		}}, nil
	}

	albums := catalog.List
	if len(albums) == 0 {
		albums = catalog.ListOfAlbums
	}

	groups := make([]domain.ScanGroup, 0, len(albums))
	for _, album := range albums {
		if err := ctx.Err(); err != nil {
			return groups, err
		}
		name := album.AlbumName
		if name == "" {
			name = UnknownAlbum
		}

		group := domain.ScanGroup{Name: name, Root: library}
		for _, key := range album.KeyList {
			path := masterPath(library, key, catalog.Masters)
			ext := domain.ExtOf(path)
			if _, ok := accept[ext]; !ok {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			group.Files = append(group.Files, fileRecord(path, ext, info))
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func readAlbumCatalog(path string) (*albumCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog albumCatalog
	if _, err := plist.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse album catalog: %w", err)
	}
	return &catalog, nil
}

// masterPath resolves an album key to a file. The catalog's ImagePath is
// preferred; otherwise the key names a file under Masters.
func masterPath(library, key string, masters map[string]masterImage) string {
	if m, ok := masters[key]; ok && m.ImagePath != "" {
		if filepath.IsAbs(m.ImagePath) {
			return filepath.Clean(m.ImagePath)
		}
		return filepath.Join(library, m.ImagePath)
	}
	return filepath.Join(library, MastersDir, key)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
