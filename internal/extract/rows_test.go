package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/inspection-cli/internal/model"
)

// Column X positions used by the synthetic report layout.
var colX = []float64{40, 100, 190, 330, 400, 470, 520, 560}

func dataLine(y float64, cells [8]string) []fragment {
	var frags []fragment
	for i, text := range cells {
		if text == "" {
			continue
		}
		frags = append(frags, fragment{X: colX[i], Y: y, FontSize: 10, Text: text})
	}
	return frags
}

func scrapeDate() model.Date {
	return model.NewDate(2025, 10, 6)
}

func TestClusterLines(t *testing.T) {
	frags := []fragment{
		{X: 100, Y: 700, FontSize: 10, Text: "b"},
		{X: 40, Y: 701, FontSize: 10, Text: "a"}, // within tolerance of y=700
		{X: 40, Y: 650, FontSize: 10, Text: "c"},
	}
	lines := clusterLines(frags)
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].frags[0].Text, "fragments sorted left to right")
	assert.Equal(t, "b", lines[0].frags[1].Text)
	assert.Equal(t, "c", lines[1].frags[0].Text)
}

func TestMergeCells(t *testing.T) {
	ln := line{y: 700, frags: []fragment{
		{X: 100, Y: 700, FontSize: 10, Text: "JOES"},
		{X: 125, Y: 700, FontSize: 10, Text: "DINER"}, // 5pt gap: same cell
		{X: 190, Y: 700, FontSize: 10, Text: "12 MAIN ST"},
	}}
	cells := mergeCells(ln)
	require.Len(t, cells, 2)
	assert.Equal(t, "JOES DINER", cells[0].text)
	assert.Equal(t, "12 MAIN ST", cells[1].text)
}

func tableFragments() []fragment {
	var frags []fragment
	// Page title: lone centered cell, not part of the table grid.
	frags = append(frags, fragment{X: 200, Y: 760, FontSize: 14, Text: "Food Service Inspections"})
	// Header row.
	frags = append(frags, dataLine(740, [8]string{
		"Permit #", "Establishment Name", "Address", "Date",
		"Inspection Type", "Food or Retail", "Score", "Violations",
	})...)
	// Two data rows.
	frags = append(frags, dataLine(728, [8]string{
		"12345", "JOES DINER", "12 MAIN ST", "06/30/2024",
		"Regular", "Food", "95", "13 21",
	})...)
	frags = append(frags, dataLine(716, [8]string{
		"67890", "CORNER MART", "9 ELM AVE", "07/02/2024",
		"Follow-up", "Retail", "88", "4",
	})...)
	return frags
}

func TestAssembleRows(t *testing.T) {
	lines := clusterLines(tableFragments())
	rows := assembleRows(lines, 1, "report.pdf", scrapeDate())

	require.Len(t, rows, 3, "title dropped, header and data rows kept")
	assert.Equal(t, "Permit #", rows[0].Cells[model.CellPermit])

	first := rows[1]
	assert.Equal(t, "12345", first.Cells[model.CellPermit])
	assert.Equal(t, "JOES DINER", first.Cells[model.CellEstablishment])
	assert.Equal(t, "12 MAIN ST", first.Cells[model.CellAddress])
	assert.Equal(t, "06/30/2024", first.Cells[model.CellDate])
	assert.Equal(t, "95", first.Cells[model.CellScore])
	assert.Equal(t, "13 21", first.Cells[model.CellViolations])
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 1, first.Table)
	assert.Equal(t, "report.pdf", first.SourceFile)
	assert.Equal(t, "2025-10-06", first.ScrapeDate.String())
}

func TestAssembleRows_TableRegions(t *testing.T) {
	frags := tableFragments()
	// A second table region after a large vertical gap.
	frags = append(frags, dataLine(640, [8]string{
		"11111", "TACO TRUCK", "50 OAK ST", "07/04/2024",
		"Regular", "Food", "99", "",
	})...)
	frags = append(frags, dataLine(628, [8]string{
		"22222", "BAKERY", "3 PINE RD", "07/05/2024",
		"Regular", "Food", "97", "",
	})...)

	rows := assembleRows(clusterLines(frags), 1, "report.pdf", scrapeDate())
	require.Len(t, rows, 5)
	assert.Equal(t, 1, rows[2].Table)
	assert.Equal(t, 2, rows[3].Table, "rows after the gap start a new table region")
	assert.Equal(t, 2, rows[4].Table)
}

func TestAssembleRows_LoneViolationCellKept(t *testing.T) {
	frags := tableFragments()
	// Overflow row carrying only extra violation codes.
	frags = append(frags, fragment{X: 560, Y: 704, FontSize: 10, Text: "34"})

	rows := assembleRows(clusterLines(frags), 1, "report.pdf", scrapeDate())
	require.Len(t, rows, 4)
	last := rows[3]
	assert.Empty(t, last.Cells[model.CellPermit])
	assert.Equal(t, "34", last.Cells[model.CellViolations])
}

func TestCarryForward(t *testing.T) {
	rows := []model.RawRow{
		{Cells: [8]string{"12345", "JOES DINER", "12 MAIN ST", "06/30/2024", "Regular", "Food", "95", "13 21"}},
		{Cells: [8]string{"", "", "", "", "", "", "", "34"}},
		{Cells: [8]string{"67890", "CORNER MART", "9 ELM AVE", "07/02/2024", "Follow-up", "Retail", "88", ""}},
	}

	out := carryForward(rows)
	require.Len(t, out, 3)

	cont := out[1]
	assert.Equal(t, "12345", cont.Cells[model.CellPermit])
	assert.Equal(t, "JOES DINER", cont.Cells[model.CellEstablishment])
	assert.Equal(t, "12 MAIN ST", cont.Cells[model.CellAddress])
	assert.Equal(t, "06/30/2024", cont.Cells[model.CellDate])
	assert.Equal(t, "34", cont.Cells[model.CellViolations])

	// Complete rows are left alone.
	assert.Equal(t, "67890", out[2].Cells[model.CellPermit])
}

func TestCarryForward_NoPriorRecord(t *testing.T) {
	rows := []model.RawRow{
		{Cells: [8]string{"", "", "", "", "", "", "", "34"}},
	}
	out := carryForward(rows)
	assert.Empty(t, out[0].Cells[model.CellPermit], "nothing to inherit from")
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewPDFExtractor().Extract("does-not-exist.pdf", scrapeDate())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindExtraction))
}
