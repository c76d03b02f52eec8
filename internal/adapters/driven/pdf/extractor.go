// Package pdf reads the embedded text layer of PDF files.
//
// pdfcpu validates the file and counts pages. Text comes from running
// ledongthuc/pdf's content stream interpreter over each page, decoding
// strings through the page fonts. Scanned PDFs have no text-showing
// operators and come back as domain.ErrNoTextLayer, which the extraction
// resolver turns into an OCR fallback.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

var _ driven.PDFExtractor = (*Extractor)(nil)

// pdfcpu otherwise creates a config directory under the user's home.
var disableConfigDir sync.Once

// Extractor implements driven.PDFExtractor.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Extractor{}
}

// Extract parses data and returns the text of every page joined by newlines.
func (e *Extractor) Extract(ctx context.Context, data []byte) (result *domain.PDFText, err error) {
	// Both parsers panic on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("pdf: %v", r)
		}
	}()

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	doc, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf read: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= doc.NumPage(); pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := doc.Page(pageNr)
		if page.V.IsNull() {
			continue
		}
		if text := pageText(page); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, domain.ErrNoTextLayer
	}
	return &domain.PDFText{Text: strings.Join(pages, "\n"), Pages: pdfCtx.PageCount}, nil
}

// pageText interprets the text operators of a page. A page whose content
// cannot be interpreted contributes nothing.
func pageText(page lpdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	var sb strings.Builder
	var enc lpdf.TextEncoding
	show := func(v lpdf.Value) {
		if v.Kind() != lpdf.String {
			return
		}
		raw := v.RawString()
		if enc != nil {
			raw = enc.Decode(raw)
		}
		sb.WriteString(raw)
	}

	contents := page.V.Key("Contents")
	streams := []lpdf.Value{contents}
	if contents.Kind() == lpdf.Array {
		streams = streams[:0]
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	}

	for _, strm := range streams {
		lpdf.Interpret(strm, func(stk *lpdf.Stack, op string) {
			args := make([]lpdf.Value, stk.Len())
			for i := len(args) - 1; i >= 0; i-- {
				args[i] = stk.Pop()
			}

			switch op {
			case "Tf":
				if len(args) > 0 {
					enc = page.Font(args[0].Name()).Encoder()
				}
			case "Tj":
				if len(args) > 0 {
					show(args[0])
				}
			case "'":
				if len(args) > 0 {
					sb.WriteByte('\n')
					show(args[len(args)-1])
				}
			case "\"":
				if len(args) > 2 {
					sb.WriteByte('\n')
					show(args[2])
				}
			case "TJ":
				if len(args) > 0 && args[0].Kind() == lpdf.Array {
					for i := 0; i < args[0].Len(); i++ {
						show(args[0].Index(i))
					}
				}
			case "T*":
				sb.WriteByte('\n')
			case "Td", "TD", "Tm", "BT", "ET":
				sb.WriteByte(' ')
			}
		})
	}

	return normalizeSpace(sb.String())
}

// normalizeSpace collapses whitespace runs and drops non-printable runes.
func normalizeSpace(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
