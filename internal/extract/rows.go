package extract

import (
	"sort"
	"strings"

	"github.com/civicdata/inspection-cli/internal/model"
)

// fragment is one positioned text run from a PDF page. Coordinates are
// PDF points with the origin at the bottom-left, so larger Y means
// higher on the page.
type fragment struct {
	X, Y     float64
	FontSize float64
	Text     string
}

// Layout tolerances, in PDF points. The source reports are generated
// at a fixed 10pt grid, so these are forgiving rather than tight.
const (
	lineTolerance  = 2.5 // fragments within this Y distance share a line
	columnTol      = 4.0 // X starts within this distance share a column
	cellGapFactor  = 1.2 // gap wider than factor*fontSize splits cells
	tableGapFactor = 2.5 // line gap wider than factor*median starts a new table
	minColumns     = 2   // lines with fewer populated cells are artifacts
)

// line is a horizontal cluster of fragments sharing a Y position.
type line struct {
	y     float64
	frags []fragment
}

// clusterLines groups fragments into lines by Y position, top of page
// first, fragments left to right within each line.
func clusterLines(frags []fragment) []line {
	if len(frags) == 0 {
		return nil
	}
	sorted := make([]fragment, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []line
	for _, f := range sorted {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		if len(lines) > 0 && lines[len(lines)-1].y-f.Y <= lineTolerance {
			lines[len(lines)-1].frags = append(lines[len(lines)-1].frags, f)
			continue
		}
		lines = append(lines, line{y: f.Y, frags: []fragment{f}})
	}
	for i := range lines {
		sort.Slice(lines[i].frags, func(a, b int) bool {
			return lines[i].frags[a].X < lines[i].frags[b].X
		})
	}
	return lines
}

// cell is a merged run of fragments forming one table cell.
type cell struct {
	x    float64
	text string
}

// mergeCells joins adjacent fragments of a line into cells. A gap wider
// than cellGapFactor times the font size marks a cell boundary.
func mergeCells(ln line) []cell {
	var cells []cell
	for _, f := range ln.frags {
		gap := cellGapFactor * f.FontSize
		if f.FontSize == 0 {
			gap = cellGapFactor * 10
		}
		if len(cells) > 0 {
			last := &cells[len(cells)-1]
			lastEnd := last.x + approxWidth(last.text, f.FontSize)
			if f.X-lastEnd < gap {
				last.text = joinCell(last.text, f.Text)
				continue
			}
		}
		cells = append(cells, cell{x: f.X, text: strings.TrimSpace(f.Text)})
	}
	return cells
}

// approxWidth estimates rendered text width; the extraction library
// reports run start positions only, so cell merging works off an
// average glyph width.
func approxWidth(s string, fontSize float64) float64 {
	if fontSize == 0 {
		fontSize = 10
	}
	return float64(len(s)) * fontSize * 0.5
}

func joinCell(a, b string) string {
	b = strings.TrimSpace(b)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

// detectColumns clusters cell X starts across all lines of a page into
// column boundaries. Only clusters seen on more than one line count;
// stray positions come from page titles and footers.
func detectColumns(lines []line) []float64 {
	type bucket struct {
		x     float64
		count int
	}
	var buckets []bucket
	for _, ln := range lines {
		for _, c := range mergeCells(ln) {
			placed := false
			for i := range buckets {
				if c.x >= buckets[i].x-columnTol && c.x <= buckets[i].x+columnTol {
					buckets[i].count++
					placed = true
					break
				}
			}
			if !placed {
				buckets = append(buckets, bucket{x: c.x, count: 1})
			}
		}
	}
	var cols []float64
	for _, b := range buckets {
		if b.count > 1 {
			cols = append(cols, b.x)
		}
	}
	sort.Float64s(cols)
	return cols
}

// columnFor returns the index of the column a cell at x belongs to: the
// rightmost boundary at or left of x (within tolerance).
func columnFor(cols []float64, x float64) int {
	idx := 0
	for i, cx := range cols {
		if x >= cx-columnTol {
			idx = i
		}
	}
	return idx
}

// assembleRows converts a page's lines into raw rows, assigning cells
// to detected columns and splitting the page into table regions on
// large vertical gaps. Lines with fewer than minColumns populated cells
// are dropped as page artifacts.
func assembleRows(lines []line, pageNum int, src string, scrapeDate model.Date) []model.RawRow {
	cols := detectColumns(lines)
	if len(cols) < minColumns {
		return nil
	}
	medianGap := medianLineGap(lines)

	var rows []model.RawRow
	tableIdx := 1
	prevY := 0.0
	for i, ln := range lines {
		if i > 0 && medianGap > 0 && prevY-ln.y > tableGapFactor*medianGap {
			tableIdx++
		}
		prevY = ln.y

		cells := mergeCells(ln)
		if len(cells) < minColumns {
			// Overflow violation codes can render as a lone cell in the
			// trailing column; keep those for carry-forward.
			if !(len(cells) == 1 && columnFor(cols, cells[0].x) == len(cols)-1) {
				continue
			}
		}

		var row model.RawRow
		row.ScrapeDate = scrapeDate
		row.Page = pageNum
		row.Table = tableIdx
		row.SourceFile = src
		for _, c := range cells {
			idx := columnFor(cols, c.x)
			if idx >= model.RawCellCount {
				idx = model.RawCellCount - 1
			}
			row.Cells[idx] = joinCell(row.Cells[idx], c.text)
		}
		rows = append(rows, row)
	}
	return rows
}

func medianLineGap(lines []line) float64 {
	if len(lines) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		gaps = append(gaps, lines[i-1].y-lines[i].y)
	}
	sort.Float64s(gaps)
	return gaps[len(gaps)/2]
}

// carryForward fills in the leading identity cells of continuation
// rows. A single logical inspection can render as several physical
// rows where the overflow rows hold only extra violation codes; those
// inherit permit, establishment, address, and date from the last
// complete row above them.
func carryForward(rows []model.RawRow) []model.RawRow {
	var last *model.RawRow
	for i := range rows {
		r := &rows[i]
		if r.Cells[model.CellPermit] != "" {
			last = r
			continue
		}
		if last == nil || r.Cells[model.CellViolations] == "" {
			continue
		}
		if r.Cells[model.CellEstablishment] == "" && r.Cells[model.CellAddress] == "" {
			r.Cells[model.CellPermit] = last.Cells[model.CellPermit]
			r.Cells[model.CellEstablishment] = last.Cells[model.CellEstablishment]
			r.Cells[model.CellAddress] = last.Cells[model.CellAddress]
			if r.Cells[model.CellDate] == "" {
				r.Cells[model.CellDate] = last.Cells[model.CellDate]
			}
		}
	}
	return rows
}
