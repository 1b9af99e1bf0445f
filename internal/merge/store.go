// Package merge maintains the append-only accumulation store: the raw
// row history spanning every scrape to date. Rows are never rewritten
// or deleted; each run's output is a superset of the previous one.
package merge

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/fileio"
	"github.com/civicdata/inspection-cli/internal/model"
)

// rawHeader is the accumulation file's column contract. The positional
// cell columns keep their numeric names from the earliest scrapes so
// history files remain readable across versions.
var rawHeader = []string{
	"0", "1", "2", "3", "4", "5", "6", "7",
	"ScrapeDate", "Page", "Table", "SourceFile",
}

// Store reads and writes the accumulation file at Path.
type Store struct {
	Path string
}

// NewStore creates a Store for the accumulation file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the full raw history. A missing file is an empty history
// (first run); a file with unexpected columns is a model.KindSchema
// error and is never silently coerced.
func (s *Store) Load() ([]model.RawRow, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "open accumulation %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, model.WrapKind(model.KindSchema, eris.Wrapf(err, "read header %s", s.Path))
	}
	if !headerMatches(header) {
		return nil, model.WrapKind(model.KindSchema,
			eris.Errorf("accumulation %s has unexpected columns %v", s.Path, header))
	}

	var rows []model.RawRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, model.WrapKind(model.KindSchema, eris.Wrapf(err, "read row %s", s.Path))
		}
		row, err := decodeRow(record)
		if err != nil {
			return nil, model.WrapKind(model.KindSchema, eris.Wrapf(err, "decode row %s", s.Path))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Merge combines the prior accumulation with newly extracted rows,
// deduplicating by the full field tuple. Existing order is preserved
// and new rows append; merging the same set twice yields the same
// result as merging it once.
func Merge(existing, incoming []model.RawRow) []model.RawRow {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]model.RawRow, 0, len(existing)+len(incoming))
	for _, r := range existing {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
	}
	added := 0
	for _, r := range incoming {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
		added++
	}
	zap.L().Info("merged raw history",
		zap.Int("existing", len(existing)),
		zap.Int("incoming", len(incoming)),
		zap.Int("appended", added),
	)
	return merged
}

// Write replaces the accumulation file with rows, atomically. On
// failure the previous file is untouched.
func (s *Store) Write(rows []model.RawRow) error {
	return fileio.WriteAtomic(s.Path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(rawHeader); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(encodeRow(row)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func headerMatches(header []string) bool {
	if len(header) != len(rawHeader) {
		return false
	}
	for i, col := range rawHeader {
		if header[i] != col {
			return false
		}
	}
	return true
}

func encodeRow(row model.RawRow) []string {
	out := make([]string, 0, len(rawHeader))
	out = append(out, row.Cells[:]...)
	out = append(out,
		row.ScrapeDate.String(),
		strconv.Itoa(row.Page),
		strconv.Itoa(row.Table),
		row.SourceFile,
	)
	return out
}

func decodeRow(record []string) (model.RawRow, error) {
	var row model.RawRow
	if len(record) != len(rawHeader) {
		return row, eris.Errorf("expected %d columns, got %d", len(rawHeader), len(record))
	}
	copy(row.Cells[:], record[:model.RawCellCount])

	scrapeDate, err := model.ParseDate(record[model.RawCellCount])
	if err != nil {
		return row, eris.Wrap(err, "scrape date")
	}
	row.ScrapeDate = scrapeDate

	if row.Page, err = strconv.Atoi(record[model.RawCellCount+1]); err != nil {
		return row, eris.Wrap(err, "page")
	}
	if row.Table, err = strconv.Atoi(record[model.RawCellCount+2]); err != nil {
		return row, eris.Wrap(err, "table")
	}
	row.SourceFile = record[model.RawCellCount+3]
	return row, nil
}
