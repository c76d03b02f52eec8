package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Strategy identifies the algorithm that turned a file's bytes into text.
type Strategy string

// Available extraction strategies.
const (
	// StrategyDirectRead reads the file as UTF-8 text.
	StrategyDirectRead Strategy = "direct-read"

	// StrategyPDFExtract reads the PDF text layer.
	StrategyPDFExtract Strategy = "pdf-extract"

	// StrategyOCR recognises text from pixel data.
	StrategyOCR Strategy = "ocr"
)

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// FileKind is the closed set of content kinds the extractor understands.
type FileKind int

const (
	// KindUnknown has no extraction strategy.
	KindUnknown FileKind = iota

	// KindText is plain text or markdown.
	KindText

	// KindPDF is a PDF document.
	KindPDF

	// KindImage is a raster image.
	KindImage
)

// String returns the string representation.
func (k FileKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// extensionKinds maps normalised extensions to their kind.
var extensionKinds = map[string]FileKind{
	".txt":      KindText,
	".md":       KindText,
	".markdown": KindText,
	".pdf":      KindPDF,
	".jpg":      KindImage,
	".jpeg":     KindImage,
	".png":      KindImage,
	".bmp":      KindImage,
	".gif":      KindImage,
	".tif":      KindImage,
	".tiff":     KindImage,
	".webp":     KindImage,
}

// NormalizeExt lowercases an extension and ensures a leading dot.
// Returns "" for an empty input.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExtOf returns the normalised extension of a path.
func ExtOf(path string) string {
	return NormalizeExt(filepath.Ext(path))
}

// ExtensionKind returns the kind for an extension, KindUnknown if unsupported.
func ExtensionKind(ext string) FileKind {
	return extensionKinds[NormalizeExt(ext)]
}

// ExtensionsOf returns every supported extension of the given kinds.
func ExtensionsOf(kinds ...FileKind) []string {
	var exts []string
	for ext, k := range extensionKinds {
		for _, want := range kinds {
			if k == want {
				exts = append(exts, ext)
			}
		}
	}
	sort.Strings(exts)
	return exts
}

// DocumentExtensions are the extensions the document scan accepts.
func DocumentExtensions() []string {
	return ExtensionsOf(KindText, KindPDF)
}

// ImageExtensions are the extensions the image scan accepts.
func ImageExtensions() []string {
	return ExtensionsOf(KindImage)
}

// ExtractionResult is the output of the extraction resolver.
type ExtractionResult struct {
	// Text is the extracted text. Blank text is treated as no content.
	Text string

	// Units is the page or unit count.
	Units int

	// Strategy is the strategy that produced Text.
	Strategy Strategy

	// ProviderMetadata carries strategy-specific details.
	ProviderMetadata map[string]any
}

// PDFText is the output of a PDF text-layer extractor.
type PDFText struct {
	Text  string
	Pages int
}

// OCRResult is the output of an OCR provider.
type OCRResult struct {
	Text  string
	Units int
	Raw   map[string]any
}

// FileRecord is a candidate file produced by a scanner. Never persisted.
type FileRecord struct {
	Path string
	Ext  string
	Size int64

	// CreatedAt falls back to ModifiedAt where no birth time is available.
	CreatedAt  time.Time
	ModifiedAt time.Time
}
