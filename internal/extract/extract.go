// Package extract turns the source inspection PDF into raw table rows.
// The PDF renders one logical table that spans many pages with no
// repeated header; extraction works page by page from positioned text
// runs and reassembles rows and table regions by geometry.
package extract

import (
	"path/filepath"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/model"
)

// PDFExtractor extracts raw rows from inspection report PDFs.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the PDF at pdfPath and returns its table rows in page
// order, each tagged with provenance and the scrape date. A zero
// scrapeDate defaults to today. A document with no extractable tables
// fails with a model.KindExtraction error rather than yielding an
// empty result; a silently empty extraction would corrupt the history
// downstream.
func (e *PDFExtractor) Extract(pdfPath string, scrapeDate model.Date) ([]model.RawRow, error) {
	if scrapeDate.IsZero() {
		scrapeDate = model.Today()
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, model.WrapKind(model.KindExtraction, eris.Wrapf(err, "open pdf %s", pdfPath))
	}
	defer f.Close() //nolint:errcheck

	if r.NumPage() == 0 {
		return nil, model.WrapKind(model.KindExtraction, eris.Errorf("no pages in pdf %s", pdfPath))
	}

	src := filepath.Base(pdfPath)
	var rows []model.RawRow
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		frags := pageFragments(page)
		lines := clusterLines(frags)
		pageRows := assembleRows(lines, pageNum, src, scrapeDate)
		rows = append(rows, pageRows...)
	}

	if len(rows) == 0 {
		return nil, model.WrapKind(model.KindExtraction,
			eris.Errorf("no extractable tables in %s", pdfPath))
	}

	rows = carryForward(rows)
	zap.L().Info("extracted rows",
		zap.String("pdf", pdfPath),
		zap.Int("pages", r.NumPage()),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// pageFragments converts a page's text runs into fragments.
func pageFragments(page pdf.Page) []fragment {
	content := page.Content()
	frags := make([]fragment, 0, len(content.Text))
	for _, t := range content.Text {
		frags = append(frags, fragment{
			X:        t.X,
			Y:        t.Y,
			FontSize: t.FontSize,
			Text:     t.S,
		})
	}
	return frags
}
