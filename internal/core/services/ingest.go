package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/core/ports/driving"
	"github.com/custodia-labs/homenet/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// defaultTitle is used for inline content submitted without a title or path.
const defaultTitle = "Untitled Document"

// IngestConfig holds the scan roots and limits the orchestrator runs with.
type IngestConfig struct {
	DocumentDirs   []string
	ImageDirs      []string
	Workers        int
	LedgerPageSize int
}

// IngestConfigFrom derives an IngestConfig from application settings.
func IngestConfigFrom(s *domain.AppSettings) IngestConfig {
	return IngestConfig{
		DocumentDirs:   s.Scan.DocumentDirs,
		ImageDirs:      s.Scan.ImageDirs,
		Workers:        s.Scan.Workers,
		LedgerPageSize: s.Ledger.PageSize,
	}
}

// IngestService coordinates scanning, extraction, dedup and persistence.
type IngestService struct {
	store     driven.RecordStore
	extractor *Extractor
	inspector driven.ImageInspector
	files     driven.FileScanner
	photos    driven.PhotoScanner
	config    IngestConfig

	ledger *Ledger
	guard  scanGuard
	now    func() time.Time
}

// NewIngestService creates the ingestion orchestrator.
// inspector and photos are optional and may be nil.
func NewIngestService(
	store driven.RecordStore,
	extractor *Extractor,
	inspector driven.ImageInspector,
	files driven.FileScanner,
	photos driven.PhotoScanner,
	config IngestConfig,
) *IngestService {
	if config.Workers < 1 {
		config.Workers = domain.DefaultWorkers
	}
	return &IngestService{
		store:     store,
		extractor: extractor,
		inspector: inspector,
		files:     files,
		photos:    photos,
		config:    config,
		ledger:    NewLedger(),
		now:       time.Now,
	}
}

// Ledger returns the dedup ledger.
func (s *IngestService) Ledger() *Ledger {
	return s.ledger
}

// Initialise seeds the ledger from the store.
// A store failure here is fatal: without a seeded ledger every prior file would be re-ingested.
func (s *IngestService) Initialise(ctx context.Context) error {
	return SeedLedger(ctx, s.store, s.ledger, s.config.LedgerPageSize)
}

// IngestOne stores a document from inline content or from a file on disk.
func (s *IngestService) IngestOne(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	// Scans key the ledger by absolute path; a relative path here would miss it.
	if req.FilePath != "" {
		if abs, err := filepath.Abs(req.FilePath); err == nil {
			req.FilePath = abs
		}
	}
	if strings.TrimSpace(req.Content) != "" {
		return s.ingestInline(ctx, req)
	}
	if req.FilePath == "" {
		return nil, fmt.Errorf("%w: content or file path required", domain.ErrInvalidInput)
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, req.FilePath)
		}
		return nil, fmt.Errorf("stat %s: %w", req.FilePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, req.FilePath)
	}

	ext := domain.NormalizeExt(req.FileType)
	if ext == "" {
		ext = domain.ExtOf(req.FilePath)
	}

	extracted, err := s.extractor.Extract(ctx, req.FilePath, ext)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", req.FilePath, err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		logger.Debug("No content extracted from %s", req.FilePath)
		return &domain.IngestResult{Success: false, Reason: domain.ReasonNoContent}, nil
	}

	title := req.Title
	if title == "" {
		title = filepath.Base(req.FilePath)
	}

	doc := &domain.DocumentRecord{
		Title:    title,
		Content:  extracted.Text,
		FilePath: req.FilePath,
		FileType: ext,
		Metadata: domain.DocumentMetadata{
			FileSize:    info.Size(),
			ProcessedAt: s.now(),
			Source:      sourceOrDefault(req.Source),
			Strategy:    extracted.Strategy,
			Units:       extracted.Units,
		},
	}
	return s.saveDocument(ctx, doc)
}

// ingestInline stores submitted content verbatim without extraction.
func (s *IngestService) ingestInline(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	path := req.FilePath
	if path == "" {
		path = domain.PlaceholderPath
	}

	title := req.Title
	if title == "" {
		if path != domain.PlaceholderPath {
			title = filepath.Base(path)
		} else {
			title = defaultTitle
		}
	}

	ext := domain.NormalizeExt(req.FileType)
	if ext == "" && path != domain.PlaceholderPath {
		ext = domain.ExtOf(path)
	}
	if ext == "" {
		ext = ".txt"
	}

	size := int64(len(req.Content))
	if path != domain.PlaceholderPath {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			size = info.Size()
		}
	}

	doc := &domain.DocumentRecord{
		Title:    title,
		Content:  req.Content,
		FilePath: path,
		FileType: ext,
		Metadata: domain.DocumentMetadata{
			FileSize:    size,
			ProcessedAt: s.now(),
			Source:      sourceOrDefault(req.Source),
		},
	}
	return s.saveDocument(ctx, doc)
}

func (s *IngestService) saveDocument(ctx context.Context, doc *domain.DocumentRecord) (*domain.IngestResult, error) {
	id, err := s.store.AddDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.ledger.Record(doc.FilePath)

	logger.Debug("Stored document %s (%s, %d bytes)", doc.FilePath, doc.Metadata.Strategy, len(doc.Content))
	return &domain.IngestResult{Success: true, ID: id, Content: doc.Content}, nil
}

// IngestImage stores an image record. Empty extracted text is valid.
func (s *IngestService) IngestImage(ctx context.Context, img domain.ImageData) (*domain.IngestResult, error) {
	if img.Path == "" {
		return nil, fmt.Errorf("%w: image path required", domain.ErrInvalidInput)
	}

	filename := img.Filename
	if filename == "" {
		filename = filepath.Base(img.Path)
	}

	meta := img.Metadata
	meta.FileSize = img.Size
	if meta.ProcessedAt.IsZero() {
		meta.ProcessedAt = s.now()
	}
	meta.Source = sourceOrDefault(meta.Source)

	record := &domain.ImageRecord{
		Filename:      filename,
		ExtractedText: img.ExtractedText,
		FilePath:      img.Path,
		Dimensions:    img.Dimensions,
		Format:        img.Format,
		Metadata:      meta,
	}

	id, err := s.store.AddImage(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	s.ledger.Record(img.Path)

	logger.Debug("Stored image %s (%dx%d, %d chars)", img.Path, img.Dimensions.Width, img.Dimensions.Height, len(img.ExtractedText))
	return &domain.IngestResult{Success: true, ID: id, Content: img.ExtractedText}, nil
}

// IngestImagePath inspects, recognises and stores the image at path.
func (s *IngestService) IngestImagePath(ctx context.Context, path string) (*domain.IngestResult, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if domain.ExtensionKind(domain.ExtOf(path)) != domain.KindImage {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, domain.ExtOf(path))
	}

	file := domain.FileRecord{
		Path:       path,
		Ext:        domain.ExtOf(path),
		Size:       info.Size(),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}
	return s.ingestImageFile(ctx, file, domain.SourceManual, "")
}

// ingestImageFile builds image data leniently: inspection and OCR failures
// are recorded on the metadata and the image is persisted regardless.
func (s *IngestService) ingestImageFile(
	ctx context.Context,
	file domain.FileRecord,
	source, album string,
) (*domain.IngestResult, error) {
	data := domain.ImageData{
		Path:     file.Path,
		Filename: filepath.Base(file.Path),
		Size:     file.Size,
		Metadata: domain.ImageMetadata{
			Source:         source,
			FileCreatedAt:  file.CreatedAt,
			FileModifiedAt: file.ModifiedAt,
			Album:          album,
		},
	}

	if s.inspector != nil {
		info, err := s.inspector.Inspect(file.Path)
		if err != nil {
			data.Metadata.InspectError = err.Error()
		} else {
			data.Dimensions = info.Dimensions
			data.Format = info.Format
		}
	}

	if !s.extractor.OCRAvailable() {
		data.Metadata.OCRError = domain.ErrOCRUnavailable.Error()
	} else {
		extracted, err := s.extractor.Extract(ctx, file.Path, file.Ext)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logger.Warn("OCR failed for %s: %v", file.Path, err)
			data.Metadata.OCRError = err.Error()
		default:
			data.ExtractedText = strings.TrimSpace(extracted.Text)
		}
	}

	return s.IngestImage(ctx, data)
}

// ScanAndIngestAll scans every configured root and ingests files not in the ledger.
// Only one scan runs at a time; a call that finds one running returns a
// result with Skipped set and no error.
func (s *IngestService) ScanAndIngestAll(ctx context.Context) (*domain.ScanResult, error) {
	if !s.guard.tryAcquire() {
		logger.Info("Scan already in progress, skipping")
		return &domain.ScanResult{Skipped: true}, nil
	}
	defer s.guard.release()

	result := &domain.ScanResult{StartedAt: s.now()}
	logger.Section("Library scan")

	var err error
	result.Documents, err = s.scanDocuments(ctx)
	if err != nil {
		result.EndedAt = s.now()
		return result, fmt.Errorf("scan documents: %w", err)
	}

	result.Images, err = s.scanImages(ctx)
	result.EndedAt = s.now()
	if err != nil {
		return result, fmt.Errorf("scan images: %w", err)
	}

	logger.Info("Scan complete in %s: %d documents, %d images stored, %d errors",
		result.Duration().Round(time.Millisecond), result.Documents.Processed, result.Images.Processed, result.ErrorCount())
	return result, nil
}

// candidate is a scanned file queued for ingestion.
type candidate struct {
	file  domain.FileRecord
	album string
}

func (s *IngestService) scanDocuments(ctx context.Context) (domain.ScanRun, error) {
	logger.Debug("Scanning document roots: %v", s.config.DocumentDirs)

	run := domain.ScanRun{Groups: make(map[string]int)}
	groups, err := s.files.Scan(ctx, s.config.DocumentDirs, domain.DocumentExtensions())
	if err != nil {
		if ctx.Err() != nil {
			return run, ctx.Err()
		}
		run.Errors = append(run.Errors, domain.ScanError{
			Directory: strings.Join(s.config.DocumentDirs, string(os.PathListSeparator)),
			Error:     err.Error(),
		})
		return run, nil
	}

	queue := collect(&run, groups, false)
	err = s.process(ctx, &run, queue, func(ctx context.Context, c candidate) (*domain.IngestResult, error) {
		return s.IngestOne(ctx, domain.IngestRequest{
			FilePath: c.file.Path,
			FileType: c.file.Ext,
			Source:   domain.SourceScan,
		})
	})
	return run, err
}

func (s *IngestService) scanImages(ctx context.Context) (domain.ScanRun, error) {
	logger.Debug("Scanning image roots: %v", s.config.ImageDirs)

	run := domain.ScanRun{Groups: make(map[string]int)}
	var queue []candidate

	groups, err := s.files.Scan(ctx, s.config.ImageDirs, domain.ImageExtensions())
	if err != nil {
		if ctx.Err() != nil {
			return run, ctx.Err()
		}
		run.Errors = append(run.Errors, domain.ScanError{
			Directory: strings.Join(s.config.ImageDirs, string(os.PathListSeparator)),
			Error:     err.Error(),
		})
	} else {
		queue = collect(&run, groups, false)
	}

	if s.photos != nil {
		albums, err := s.photos.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			run.Errors = append(run.Errors, domain.ScanError{Directory: "photo library", Error: err.Error()})
		} else {
			queue = append(queue, collect(&run, albums, true)...)
		}
	}

	queue = uniqueCandidates(queue)
	err = s.process(ctx, &run, queue, func(ctx context.Context, c candidate) (*domain.IngestResult, error) {
		return s.ingestImageFile(ctx, c.file, domain.SourceScan, c.album)
	})
	return run, err
}

// collect records group counts and enumeration errors and returns the files to ingest.
func collect(run *domain.ScanRun, groups []domain.ScanGroup, albums bool) []candidate {
	var queue []candidate
	for _, g := range groups {
		run.Groups[g.Name] += len(g.Files)
		run.Errors = append(run.Errors, g.Errors...)
		logger.Debug("Group %q: %d files, %d errors", g.Name, len(g.Files), len(g.Errors))

		album := ""
		if albums {
			album = g.Name
		}
		for _, f := range g.Files {
			queue = append(queue, candidate{file: f, album: album})
		}
	}
	return uniqueCandidates(queue)
}

// uniqueCandidates drops repeated paths, keeping the first occurrence.
// A photo can belong to several albums and also appear in a flat scan.
func uniqueCandidates(queue []candidate) []candidate {
	seen := make(map[string]struct{}, len(queue))
	out := queue[:0]
	for _, c := range queue {
		key := filepath.Clean(c.file.Path)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// process ingests every candidate not in the ledger using a bounded worker pool.
// Per-file failures are appended to run.Errors; only cancellation is returned.
func (s *IngestService) process(
	ctx context.Context,
	run *domain.ScanRun,
	queue []candidate,
	ingest func(context.Context, candidate) (*domain.IngestResult, error),
) error {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.config.Workers)

	for _, c := range queue {
		if ctx.Err() != nil {
			break
		}

		mu.Lock()
		run.Scanned++
		mu.Unlock()

		if s.ledger.Contains(c.file.Path) {
			continue
		}

		g.Go(func() error {
			res, err := ingestIsolated(ctx, c, ingest)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("Failed to ingest %s: %v", c.file.Path, err)
				run.Errors = append(run.Errors, domain.ScanError{File: c.file.Path, Error: err.Error()})
			case !res.Success:
				// Empty files stay in the ledger until restart so each scan does not re-extract them.
				s.ledger.Record(c.file.Path)
				run.Empty++
			default:
				run.Processed++
				run.NewFiles = append(run.NewFiles, c.file.Path)
			}
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// ingestIsolated runs ingest, converting a panic into a per-file error.
func ingestIsolated(
	ctx context.Context,
	c candidate,
	ingest func(context.Context, candidate) (*domain.IngestResult, error),
) (res *domain.IngestResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ingest(ctx, c)
}

// Stats returns record counts and scan state.
func (s *IngestService) Stats(ctx context.Context) (*domain.Stats, error) {
	docs, err := s.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	images, err := s.store.CountImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}

	started, ended := s.guard.times()
	return &domain.Stats{
		TotalDocuments:     docs,
		TotalImages:        images,
		ProcessedFileCount: s.ledger.Len(),
		IsScanning:         s.guard.State() == domain.ScanRunning,
		LastScanStartedAt:  started,
		LastScanEndedAt:    ended,
	}, nil
}

func sourceOrDefault(source string) string {
	if source == "" {
		return domain.SourceManual
	}
	return source
}
