package pdf

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/pagerange"
)

// maxPageText bounds the text returned for a single page
const maxPageText = 1024 * 1024

// PageText returns the text of one page
func (s *Service) PageText(ctx context.Context, req PDFPageTextRequest) (*PageTextResult, error) {
	var result PageTextResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		if err := checkPageIndex(doc, req.PageNumber); err != nil {
			return err
		}
		r, err := doc.TextReader()
		if err != nil {
			return err
		}
		result = extractPageText(r, req.PageNumber)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PagesBySpans returns the text of every page selected by a span expression
// such as "0-2,5"
func (s *Service) PagesBySpans(ctx context.Context, req PDFPageSpansRequest) (*PDFPageSpansResult, error) {
	var result *PDFPageSpansResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		ranges, err := pagerange.Parse(req.PageSpans, doc.PageCount())
		if err != nil {
			return err
		}
		r, err := doc.TextReader()
		if err != nil {
			return err
		}

		indices := pagerange.Pages(ranges)
		result = &PDFPageSpansResult{
			PageSpans:     req.PageSpans,
			ParsedIndices: indices,
			TotalPages:    doc.PageCount(),
			PagesInfo:     make([]PageTextResult, 0, len(indices)),
		}
		for _, idx := range indices {
			result.PagesInfo = append(result.PagesInfo, extractPageText(r, idx))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkPageIndex(doc *document.Document, index int) error {
	if index < 0 || index >= doc.PageCount() {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument,
			fmt.Sprintf("page index out of range: %d (document has %d pages)", index, doc.PageCount())).WithPath(doc.Path())
	}
	return nil
}

// extractPageText reads the text of the 0-based page index. Failures are
// reported in the result so one bad page does not hide the others.
func extractPageText(r *pdf.Reader, index int) (result PageTextResult) {
	result.PageNumber = index

	defer func() {
		if rec := recover(); rec != nil {
			result.Text, result.CharCount = "", 0
			result.Error = fmt.Sprintf("text extraction failed: %v", rec)
		}
	}()

	if index+1 > r.NumPage() {
		result.Error = "page is not reachable by the text extractor"
		return result
	}
	page := r.Page(index + 1)
	if page.V.IsNull() {
		return result
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		result.Error = fmt.Sprintf("text extraction failed: %v", err)
		return result
	}
	text, result.Truncated = truncateText(text, maxPageText)

	result.Text = text
	result.CharCount = len([]rune(text))
	return result
}

// truncateText cuts text to at most limit bytes without splitting a rune
func truncateText(text string, limit int) (string, bool) {
	if len(text) <= limit {
		return text, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}
