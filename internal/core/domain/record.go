package domain

import "time"

// Record sources identify which entry point persisted a record.
const (
	// SourceScan marks records written by the automatic bulk scan.
	SourceScan = "scan"

	// SourceManual marks records written by a direct ingestion call.
	SourceManual = "manual"
)

// PlaceholderPath is the file path recorded for inline content submitted without one.
const PlaceholderPath = "uploaded-content"

// DocumentRecord is a persisted text document.
// FilePath is the dedup key. Content is never empty once persisted.
type DocumentRecord struct {
	// ID is assigned by the store.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the extracted or submitted text.
	Content string

	// FilePath is the original location, or PlaceholderPath for inline content.
	FilePath string

	// FileType is the lowercase extension including the leading dot.
	FileType string

	// Metadata describes how the record was produced.
	Metadata DocumentMetadata

	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// DocumentMetadata holds ingestion details for a document.
type DocumentMetadata struct {
	// FileSize is the on-disk size, or the content length when no file exists.
	FileSize int64

	// ProcessedAt is when extraction finished.
	ProcessedAt time.Time

	// Source is SourceScan or SourceManual.
	Source string

	// Strategy is the extraction strategy that produced Content.
	// Empty for inline content.
	Strategy Strategy

	// Units is the number of pages or units the extractor reported.
	Units int
}

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// ImageRecord is a persisted image.
// Unlike documents, ExtractedText may be empty: image metadata alone is worth indexing.
type ImageRecord struct {
	// ID is assigned by the store.
	ID string

	// Filename is the base name of the file.
	Filename string

	// ExtractedText is the OCR output. Empty when OCR failed or found nothing.
	ExtractedText string

	// FilePath is the original location and the dedup key.
	FilePath string

	// Dimensions is the pixel size, zero when the image could not be decoded.
	Dimensions Dimensions

	// Format is the decoded image format (e.g. "jpeg", "png").
	Format string

	// Metadata describes how the record was produced.
	Metadata ImageMetadata

	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// ImageMetadata holds ingestion details for an image.
type ImageMetadata struct {
	FileSize    int64
	ProcessedAt time.Time
	Source      string

	// OCRError is set when OCR failed. The image is still persisted.
	OCRError string

	// InspectError is set when dimensions or format could not be read.
	InspectError string

	// FileCreatedAt and FileModifiedAt come from the filesystem.
	FileCreatedAt  time.Time
	FileModifiedAt time.Time

	// Album is the photo library group the image was found in, if any.
	Album string
}

// ImageData is the input to image ingestion.
type ImageData struct {
	Path          string
	Filename      string
	Size          int64
	ExtractedText string
	Dimensions    Dimensions
	Format        string
	Metadata      ImageMetadata
}

// ImageInfo is what an image inspector reports about a file.
type ImageInfo struct {
	Dimensions Dimensions
	Format     string
}

// IngestRequest is the input to document ingestion.
// Either Content or FilePath must be set; non-blank Content wins.
type IngestRequest struct {
	Title    string
	Content  string
	FilePath string
	FileType string

	// Source defaults to SourceManual.
	Source string
}

// IngestResult is the outcome of a single ingestion call.
// Success=false with a Reason is a soft failure, not an error.
type IngestResult struct {
	Success bool
	ID      string
	Reason  string

	// Content is the text that was persisted.
	Content string
}

// ReasonNoContent is the soft-failure reason for extractions that yield no text.
const ReasonNoContent = "no content extracted"
