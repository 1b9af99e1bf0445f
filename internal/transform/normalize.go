// Package transform derives canonical inspection records from the raw
// row history: positional cells become named fields, dates and scores
// are parsed, artifact rows are dropped, and multi-code violation cells
// expand into one record per code.
package transform

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/civicdata/inspection-cli/internal/model"
)

// permitPattern matches a real permit number. Page headers and footers
// land in the same column position with non-numeric text.
var permitPattern = regexp.MustCompile(`^\d+$`)

var titleCaser = cases.Title(language.AmericanEnglish)

// Stats counts rows dropped during normalization, by reason. Drops are
// row-local: they never abort the run.
type Stats struct {
	BadShape  int // too few populated cells to be a data row
	BadPermit int // non-numeric permit column (header/footer artifacts)
	BadDate   int // unparsable inspection date
}

// Dropped returns the total number of dropped rows.
func (s Stats) Dropped() int {
	return s.BadShape + s.BadPermit + s.BadDate
}

// Normalize converts the full raw history into inspection records.
// Rows that fail shape, permit, or date checks are dropped and counted;
// a missing or non-numeric score keeps the row with a null score.
// Output order is not significant.
func Normalize(rows []model.RawRow) ([]model.InspectionRecord, Stats) {
	var (
		records []model.InspectionRecord
		stats   Stats
	)
	for _, row := range rows {
		recs, ok := normalizeRow(row, &stats)
		if !ok {
			continue
		}
		records = append(records, recs...)
	}

	if stats.Dropped() > 0 {
		zap.L().Info("normalization dropped rows",
			zap.Int("bad_shape", stats.BadShape),
			zap.Int("bad_permit", stats.BadPermit),
			zap.Int("bad_date", stats.BadDate),
		)
	}
	return records, stats
}

func normalizeRow(row model.RawRow, stats *Stats) ([]model.InspectionRecord, bool) {
	if populatedCells(row) < 2 {
		stats.BadShape++
		return nil, false
	}

	permit := strings.TrimSpace(row.Cells[model.CellPermit])
	if !permitPattern.MatchString(permit) {
		stats.BadPermit++
		return nil, false
	}

	date, err := model.ParseDate(strings.TrimSpace(row.Cells[model.CellDate]))
	if err != nil {
		stats.BadDate++
		return nil, false
	}

	base := model.InspectionRecord{
		Permit:         permit,
		Establishment:  CleanName(row.Cells[model.CellEstablishment]),
		Address:        collapseSpace(row.Cells[model.CellAddress]),
		Date:           date,
		InspectionType: collapseSpace(row.Cells[model.CellInspectionType]),
		Classification: collapseSpace(row.Cells[model.CellClassification]),
		Score:          parseScore(row.Cells[model.CellScore]),
		ScrapeDate:     row.ScrapeDate,
		SourceFile:     row.SourceFile,
		Page:           row.Page,
		Table:          row.Table,
	}

	codes := SplitViolations(row.Cells[model.CellViolations])
	if len(codes) == 0 {
		// Violation-free inspection: one record, empty code.
		return []model.InspectionRecord{base}, true
	}

	records := make([]model.InspectionRecord, 0, len(codes))
	for _, code := range codes {
		rec := base
		rec.Violation = code
		records = append(records, rec)
	}
	return records, true
}

func populatedCells(row model.RawRow) int {
	n := 0
	for _, c := range row.Cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// SplitViolations expands a violation cell into individual codes. The
// PDF renders multiple codes either comma- or space-separated depending
// on the report vintage.
func SplitViolations(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	codes := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			codes = append(codes, f)
		}
	}
	return codes
}

// parseScore returns the numeric score, or nil when the cell is empty
// or non-numeric. A record can be score-less but violation-bearing.
func parseScore(cell string) *float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// CleanName normalizes an establishment name: whitespace collapsed,
// and all-caps names title-cased for readability.
func CleanName(s string) string {
	s = collapseSpace(s)
	if s != "" && s == strings.ToUpper(s) && strings.ContainsFunc(s, unicode.IsLetter) {
		s = titleCaser.String(strings.ToLower(s))
	}
	return s
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
