package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/logger"
)

// Extractor turns a file into text using the strategy its extension selects.
//
// Dispatch:
//
//	text, markdown  -> direct read
//	pdf             -> text layer, then OCR on the raw PDF if the layer is empty or unreadable
//	images          -> OCR
type Extractor struct {
	pdf driven.PDFExtractor
	ocr driven.OCRService
}

// NewExtractor creates an extractor. ocr may be nil, which behaves as an
// unconfigured provider.
func NewExtractor(pdf driven.PDFExtractor, ocr driven.OCRService) *Extractor {
	return &Extractor{pdf: pdf, ocr: ocr}
}

// OCRAvailable reports whether an OCR provider is configured.
func (e *Extractor) OCRAvailable() bool {
	return e.ocr != nil && e.ocr.Available()
}

// Extract runs the strategy for ext against the file at path.
// Returns domain.ErrUnsupportedType for extensions with no strategy.
// A successful result may carry empty text; callers decide whether that is a failure.
func (e *Extractor) Extract(ctx context.Context, path, ext string) (*domain.ExtractionResult, error) {
	if ext == "" {
		ext = domain.ExtOf(path)
	}

	switch domain.ExtensionKind(ext) {
	case domain.KindText:
		return e.extractText(path)
	case domain.KindPDF:
		return e.extractPDF(ctx, path)
	case domain.KindImage:
		return e.extractImage(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, domain.NormalizeExt(ext))
	}
}

func (e *Extractor) extractText(path string) (*domain.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return &domain.ExtractionResult{
		Text:     string(data),
		Units:    1,
		Strategy: domain.StrategyDirectRead,
	}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pdfText, pdfErr := e.pdf.Extract(ctx, data)
	if pdfErr == nil {
		if pdfText != nil && strings.TrimSpace(pdfText.Text) != "" {
			return &domain.ExtractionResult{
				Text:     pdfText.Text,
				Units:    pdfText.Pages,
				Strategy: domain.StrategyPDFExtract,
			}, nil
		}
		pdfErr = domain.ErrNoTextLayer
	}

	// Without a provider the PDF failure is what the operator needs to see.
	if !e.OCRAvailable() {
		return nil, fmt.Errorf("extract pdf: %w", pdfErr)
	}

	logger.Debug("PDF text extraction failed for %s (%v), falling back to OCR", path, pdfErr)

	result, ocrErr := e.ocr.Recognize(ctx, bytes.NewReader(data))
	if ocrErr != nil {
		return nil, fmt.Errorf("extract pdf: %w; ocr fallback: %w", pdfErr, ocrErr)
	}

	return &domain.ExtractionResult{
		Text:     result.Text,
		Units:    result.Units,
		Strategy: domain.StrategyOCR,
		ProviderMetadata: map[string]any{
			"fallback_from": string(domain.StrategyPDFExtract),
			"pdf_error":     pdfErr.Error(),
			"raw":           result.Raw,
		},
	}, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	if !e.OCRAvailable() {
		return nil, fmt.Errorf("recognise image: %w", domain.ErrOCRUnavailable)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	result, err := e.ocr.Recognize(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("recognise image: %w", err)
	}

	return &domain.ExtractionResult{
		Text:             result.Text,
		Units:            result.Units,
		Strategy:         domain.StrategyOCR,
		ProviderMetadata: map[string]any{"raw": result.Raw},
	}, nil
}
