package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// fixture bundles an IngestService with its mocks.
type fixture struct {
	svc     *IngestService
	store   *mockRecordStore
	ocr     *mockOCR
	scanner *mockFileScanner
	photos  *mockPhotoScanner
}

func newFixture(t *testing.T, pdf *mockPDF, ocr *mockOCR, workers int) *fixture {
	t.Helper()
	if pdf == nil {
		pdf = &mockPDF{}
	}
	if ocr == nil {
		ocr = &mockOCR{}
	}
	f := &fixture{
		store:   newMockRecordStore(),
		ocr:     ocr,
		scanner: &mockFileScanner{},
		photos:  &mockPhotoScanner{},
	}
	f.svc = NewIngestService(
		f.store,
		NewExtractor(pdf, ocr),
		&mockInspector{info: &domain.ImageInfo{Dimensions: domain.Dimensions{Width: 640, Height: 480}, Format: "png"}},
		f.scanner,
		f.photos,
		IngestConfig{DocumentDirs: []string{"docs"}, ImageDirs: []string{"images"}, Workers: workers},
	)
	return f
}

func fileRecord(t *testing.T, path string) domain.FileRecord {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return domain.FileRecord{
		Path:       path,
		Ext:        domain.ExtOf(path),
		Size:       info.Size(),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}
}

func group(t *testing.T, name string, paths ...string) domain.ScanGroup {
	t.Helper()
	g := domain.ScanGroup{Name: name, Root: name}
	for _, p := range paths {
		g.Files = append(g.Files, fileRecord(t, p))
	}
	return g
}

// ==================== IngestOne ====================

func TestIngestOne_InlineContent(t *testing.T) {
	f := newFixture(t, nil, nil, 1)

	result, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{Content: "pasted notes"})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "pasted notes", result.Content)

	docs := f.store.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, domain.PlaceholderPath, docs[0].FilePath)
	assert.Equal(t, "Untitled Document", docs[0].Title)
	assert.Equal(t, ".txt", docs[0].FileType)
	assert.Equal(t, int64(len("pasted notes")), docs[0].Metadata.FileSize)
	assert.Equal(t, domain.SourceManual, docs[0].Metadata.Source)
	assert.Empty(t, docs[0].Metadata.Strategy)

	// The placeholder never blocks the automatic scan.
	assert.Equal(t, 0, f.svc.Ledger().Len())
}

func TestIngestOne_InlineContentWinsOverPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "upload.md", []byte("file body that is longer"))
	f := newFixture(t, nil, nil, 1)

	result, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{
		Title:    "Upload",
		Content:  "inline body",
		FilePath: path,
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	docs := f.store.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "inline body", docs[0].Content)
	assert.Equal(t, ".md", docs[0].FileType)
	assert.Equal(t, int64(len("file body that is longer")), docs[0].Metadata.FileSize)
	assert.True(t, f.svc.Ledger().Contains(path))
}

func TestIngestOne_FileNotFound(t *testing.T) {
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{
		FilePath: filepath.Join(t.TempDir(), "missing.txt"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFileNotFound))
	assert.Empty(t, f.store.documents())
}

func TestIngestOne_NothingToIngest(t *testing.T) {
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{Content: "   "})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestIngestOne_FromFile(t *testing.T) {
	content := "line one\nline two\n"
	path := writeFile(t, t.TempDir(), "notes.txt", []byte(content))
	f := newFixture(t, nil, nil, 1)

	result, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{FilePath: path})

	require.NoError(t, err)
	assert.True(t, result.Success)

	docs := f.store.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, content, docs[0].Content)
	assert.Equal(t, "notes.txt", docs[0].Title)
	assert.Equal(t, path, docs[0].FilePath)
	assert.Equal(t, int64(len(content)), docs[0].Metadata.FileSize)
	assert.Equal(t, domain.StrategyDirectRead, docs[0].Metadata.Strategy)
	assert.True(t, f.svc.Ledger().Contains(path))
}

func TestIngestOne_EmptyFileIsSoftFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.md", []byte(" \n\t\n"))
	f := newFixture(t, nil, nil, 1)

	result, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{FilePath: path})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.ReasonNoContent, result.Reason)
	assert.Empty(t, f.store.documents())
}

func TestIngestOne_ExtractionErrorSurfaces(t *testing.T) {
	path := writeFile(t, t.TempDir(), "contract.docx", []byte("PK"))
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{FilePath: path})

	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
}

func TestIngestOne_StoreFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("x"))
	f := newFixture(t, nil, nil, 1)
	f.store.addErr = errors.New("disk full")

	_, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{FilePath: path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save document")
	assert.False(t, f.svc.Ledger().Contains(path))
}

// ==================== Images ====================

func TestIngestImage_EmptyTextPersisted(t *testing.T) {
	f := newFixture(t, nil, nil, 1)

	result, err := f.svc.IngestImage(context.Background(), domain.ImageData{
		Path: "/photos/cat.png",
		Size: 2048,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)

	images := f.store.imageRecords()
	require.Len(t, images, 1)
	assert.Equal(t, "cat.png", images[0].Filename)
	assert.Empty(t, images[0].ExtractedText)
	assert.Equal(t, int64(2048), images[0].Metadata.FileSize)
	assert.Equal(t, domain.SourceManual, images[0].Metadata.Source)
	assert.False(t, images[0].Metadata.ProcessedAt.IsZero())
}

func TestIngestImage_RequiresPath(t *testing.T) {
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestImage(context.Background(), domain.ImageData{})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestIngestImagePath_OCRJobFailedStillPersists(t *testing.T) {
	path := writeFile(t, t.TempDir(), "whiteboard.png", []byte("png bytes"))
	ocr := &mockOCR{available: true, err: &domain.OCRJobFailedError{Status: "failed"}}
	f := newFixture(t, nil, ocr, 1)

	result, err := f.svc.IngestImagePath(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, result.Success)

	images := f.store.imageRecords()
	require.Len(t, images, 1)
	assert.Equal(t, "", images[0].ExtractedText)
	assert.Contains(t, images[0].Metadata.OCRError, "OCR job failed with status: failed")
	assert.Equal(t, domain.Dimensions{Width: 640, Height: 480}, images[0].Dimensions)
	assert.Equal(t, "png", images[0].Format)
}

func TestIngestImagePath_Recognised(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sign.jpg", []byte("jpg bytes"))
	f := newFixture(t, nil, &mockOCR{available: true, text: "  NO PARKING \n"}, 1)

	_, err := f.svc.IngestImagePath(context.Background(), path)

	require.NoError(t, err)
	images := f.store.imageRecords()
	require.Len(t, images, 1)
	assert.Equal(t, "NO PARKING", images[0].ExtractedText)
	assert.Empty(t, images[0].Metadata.OCRError)
	assert.Equal(t, int64(len("jpg bytes")), images[0].Metadata.FileSize)
}

func TestIngestImagePath_WithoutOCR(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sign.jpg", []byte("jpg bytes"))
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestImagePath(context.Background(), path)

	require.NoError(t, err)
	images := f.store.imageRecords()
	require.Len(t, images, 1)
	assert.Empty(t, images[0].ExtractedText)
	assert.Equal(t, domain.ErrOCRUnavailable.Error(), images[0].Metadata.OCRError)
	assert.Zero(t, f.ocr.calls.Load())
}

func TestIngestOne_RelativePathStoredAbsolute(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "documents/a.txt", []byte("alpha"))
	t.Chdir(dir)
	f := newFixture(t, nil, nil, 1)

	result, err := f.svc.IngestOne(context.Background(), domain.IngestRequest{FilePath: "documents/a.txt"})
	require.NoError(t, err)
	require.True(t, result.Success)

	want, err := filepath.Abs("documents/a.txt")
	require.NoError(t, err)
	docs := f.store.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, want, docs[0].FilePath)
	assert.True(t, f.svc.Ledger().Contains(want))
	assert.False(t, f.svc.Ledger().Contains("documents/a.txt"))
}

func TestIngestImagePath_RelativePathStoredAbsolute(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "images/sign.jpg", []byte("jpg bytes"))
	t.Chdir(dir)
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestImagePath(context.Background(), "images/sign.jpg")
	require.NoError(t, err)

	want, err := filepath.Abs("images/sign.jpg")
	require.NoError(t, err)
	images := f.store.imageRecords()
	require.Len(t, images, 1)
	assert.Equal(t, want, images[0].FilePath)
}

func TestIngestImagePath_InspectError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "corrupt.gif", []byte("nope"))
	f := newFixture(t, nil, nil, 1)
	f.svc.inspector = &mockInspector{err: errors.New("image: unknown format")}

	_, err := f.svc.IngestImagePath(context.Background(), path)

	require.NoError(t, err)
	images := f.store.imageRecords()
	require.Len(t, images, 1)
	assert.Equal(t, "image: unknown format", images[0].Metadata.InspectError)
	assert.Zero(t, images[0].Dimensions)
}

func TestIngestImagePath_Errors(t *testing.T) {
	f := newFixture(t, nil, nil, 1)

	_, err := f.svc.IngestImagePath(context.Background(), filepath.Join(t.TempDir(), "gone.png"))
	assert.True(t, errors.Is(err, domain.ErrFileNotFound))

	txt := writeFile(t, t.TempDir(), "a.txt", []byte("x"))
	_, err = f.svc.IngestImagePath(context.Background(), txt)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
}

// ==================== ScanAndIngestAll ====================

func TestScanAndIngestAll_Idempotent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "docs/a.txt", []byte("alpha"))
	b := writeFile(t, dir, "docs/sub/b.md", []byte("# beta"))
	img := writeFile(t, dir, "images/c.png", []byte("png"))

	f := newFixture(t, nil, &mockOCR{available: true, text: "gamma"}, 1)
	f.scanner.docGroups = []domain.ScanGroup{group(t, "docs", a, b)}
	f.scanner.imageGroups = []domain.ScanGroup{group(t, "images", img)}
	ctx := context.Background()

	first, err := f.svc.ScanAndIngestAll(ctx)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, 2, first.Documents.Scanned)
	assert.Equal(t, 2, first.Documents.Processed)
	assert.ElementsMatch(t, []string{a, b}, first.Documents.NewFiles)
	assert.Equal(t, 1, first.Images.Processed)
	assert.Equal(t, 2, first.Documents.Groups["docs"])
	assert.False(t, first.EndedAt.Before(first.StartedAt))

	second, err := f.svc.ScanAndIngestAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Documents.Scanned)
	assert.Equal(t, 0, second.Processed())
	assert.Len(t, f.store.documents(), 2)
	assert.Len(t, f.store.imageRecords(), 1)
	assert.Equal(t, int32(1), f.ocr.calls.Load())
}

func TestScanAndIngestAll_IdempotentAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("alpha"))
	img := writeFile(t, dir, "b.png", []byte("png"))

	f := newFixture(t, nil, nil, 1)
	f.scanner.docGroups = []domain.ScanGroup{group(t, "docs", a)}
	f.scanner.imageGroups = []domain.ScanGroup{group(t, "images", img)}
	ctx := context.Background()

	_, err := f.svc.ScanAndIngestAll(ctx)
	require.NoError(t, err)

	// A new process sharing the same store.
	restarted := NewIngestService(f.store, NewExtractor(&mockPDF{}, nil), nil, f.scanner, nil,
		IngestConfig{DocumentDirs: []string{"docs"}, ImageDirs: []string{"images"}})
	require.NoError(t, restarted.Initialise(ctx))

	result, err := restarted.ScanAndIngestAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed())
	assert.Len(t, f.store.documents(), 1)
	assert.Len(t, f.store.imageRecords(), 1)
}

func TestScanAndIngestAll_PerFileErrorsDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", []byte("fine"))
	bad := writeFile(t, dir, "bad.pdf", []byte("%PDF"))
	empty := writeFile(t, dir, "empty.txt", []byte(""))

	f := newFixture(t, &mockPDF{err: errors.New("encrypted")}, nil, 1)
	g := group(t, "docs", bad, good, empty)
	g.Errors = []domain.ScanError{{Directory: filepath.Join(dir, "locked"), Error: "permission denied"}}
	f.scanner.docGroups = []domain.ScanGroup{g}

	result, err := f.svc.ScanAndIngestAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Documents.Scanned)
	assert.Equal(t, 1, result.Documents.Processed)
	assert.Equal(t, 1, result.Documents.Empty)
	require.Len(t, result.Documents.Errors, 2)
	assert.Equal(t, filepath.Join(dir, "locked"), result.Documents.Errors[0].Directory)
	assert.Equal(t, bad, result.Documents.Errors[1].File)
	assert.Contains(t, result.Documents.Errors[1].Error, "encrypted")

	// Empty files are not retried within the process; failed files are.
	assert.True(t, f.svc.Ledger().Contains(empty))
	assert.False(t, f.svc.Ledger().Contains(bad))
}

func TestScanAndIngestAll_ScannerErrorRecorded(t *testing.T) {
	f := newFixture(t, nil, nil, 1)
	f.scanner.err = errors.New("root unreadable")

	result, err := f.svc.ScanAndIngestAll(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Documents.Errors, 1)
	assert.Equal(t, "docs", result.Documents.Errors[0].Directory)
	require.Len(t, result.Images.Errors, 1)
}

func TestScanAndIngestAll_SkipsWhenRunning(t *testing.T) {
	f := newFixture(t, nil, nil, 1)
	f.scanner.entered = make(chan struct{}, 1)
	f.scanner.release = make(chan struct{})
	ctx := context.Background()

	done := make(chan *domain.ScanResult)
	go func() {
		result, _ := f.svc.ScanAndIngestAll(ctx)
		done <- result
	}()

	<-f.scanner.entered
	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.IsScanning)

	skipped, err := f.svc.ScanAndIngestAll(ctx)
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)
	// Only the first call reached the scanner.
	assert.Equal(t, int32(1), f.scanner.calls.Load())

	close(f.scanner.release)
	first := <-done
	assert.False(t, first.Skipped)

	stats, err = f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, stats.IsScanning)
}

func TestScanAndIngestAll_ReleasesAfterPanic(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("alpha"))
	f := newFixture(t, nil, nil, 1)
	f.scanner.docGroups = []domain.ScanGroup{group(t, "docs", path)}
	f.scanner.panicOnce.Store(true)

	assert.Panics(t, func() {
		_, _ = f.svc.ScanAndIngestAll(context.Background())
	})
	assert.Equal(t, domain.ScanIdle, f.svc.guard.State())

	result, err := f.svc.ScanAndIngestAll(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, result.Documents.Processed)
}

func TestScanAndIngestAll_Workers(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 20; i++ {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("%02d.txt", i), []byte(fmt.Sprintf("doc %d", i))))
	}

	f := newFixture(t, nil, nil, 4)
	f.scanner.docGroups = []domain.ScanGroup{group(t, "docs", paths...)}

	result, err := f.svc.ScanAndIngestAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 20, result.Documents.Processed)
	assert.ElementsMatch(t, paths, result.Documents.NewFiles)
	assert.Len(t, f.store.documents(), 20)
}

func TestScanAndIngestAll_PhotoAlbums(t *testing.T) {
	dir := t.TempDir()
	beach := writeFile(t, dir, "Masters/beach.jpg", []byte("jpg"))
	dog := writeFile(t, dir, "Masters/dog.jpg", []byte("jpg"))

	f := newFixture(t, nil, nil, 1)
	f.photos.groups = []domain.ScanGroup{
		group(t, "Holiday", beach),
		group(t, "Pets", dog, beach),
		group(t, "Pictures Directory", beach, dog),
	}

	result, err := f.svc.ScanAndIngestAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Images.Scanned)
	assert.Equal(t, 2, result.Images.Processed)
	assert.Equal(t, 1, result.Images.Groups["Holiday"])
	assert.Equal(t, 2, result.Images.Groups["Pets"])
	assert.Equal(t, 2, result.Images.Groups["Pictures Directory"])

	albums := map[string]string{}
	for _, img := range f.store.imageRecords() {
		albums[img.FilePath] = img.Metadata.Album
		assert.Equal(t, domain.SourceScan, img.Metadata.Source)
	}
	assert.Equal(t, "Holiday", albums[beach])
	assert.Equal(t, "Pets", albums[dog])
}

func TestScanAndIngestAll_Cancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("alpha"))
	f := newFixture(t, nil, nil, 1)
	f.scanner.docGroups = []domain.ScanGroup{group(t, "docs", path)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.ScanAndIngestAll(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.store.documents())
	assert.Equal(t, domain.ScanIdle, f.svc.guard.State())
}

// ==================== Stats & Initialise ====================

func TestStats(t *testing.T) {
	f := newFixture(t, nil, nil, 1)
	ctx := context.Background()
	_, err := f.svc.IngestOne(ctx, domain.IngestRequest{Content: "a", FilePath: "/x/a.txt"})
	require.NoError(t, err)
	_, err = f.svc.IngestImage(ctx, domain.ImageData{Path: "/x/b.png"})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 1, stats.TotalImages)
	assert.Equal(t, 2, stats.ProcessedFileCount)
	assert.False(t, stats.IsScanning)
	assert.True(t, stats.LastScanStartedAt.IsZero())
}

func TestStats_AfterScan(t *testing.T) {
	f := newFixture(t, nil, nil, 1)
	before := time.Now()

	_, err := f.svc.ScanAndIngestAll(context.Background())
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.LastScanStartedAt.Before(before))
	assert.False(t, stats.LastScanEndedAt.Before(stats.LastScanStartedAt))
}

func TestStats_StoreError(t *testing.T) {
	f := newFixture(t, nil, nil, 1)
	f.store.countErr = errors.New("gone")

	_, err := f.svc.Stats(context.Background())

	assert.Error(t, err)
}

func TestInitialise_StoreUnavailable(t *testing.T) {
	f := newFixture(t, nil, nil, 1)
	f.store.listErr = errors.New("connection refused")

	err := f.svc.Initialise(context.Background())

	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestIngestConfigFrom(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.Scan.Workers = 3

	cfg := IngestConfigFrom(&s)

	assert.Equal(t, s.Scan.DocumentDirs, cfg.DocumentDirs)
	assert.Equal(t, s.Scan.ImageDirs, cfg.ImageDirs)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 100, cfg.LedgerPageSize)
}
