// Package enrich joins the inspection history against the static
// violation-code reference table and writes the published dataset.
package enrich

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/model"
)

// LoadReference loads the violation-code reference table from a .csv or
// .xlsx file. The table is read-only configuration; it must exist and
// carry at least one coded row.
func LoadReference(path string) ([]model.ViolationCodeEntry, error) {
	var (
		entries []model.ViolationCodeEntry
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		entries, err = loadReferenceXLSX(path)
	default:
		entries, err = loadReferenceCSV(path)
	}
	if err != nil {
		return nil, err
	}

	coded := entries[:0]
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			continue
		}
		if _, dup := seen[e.Code]; dup {
			zap.L().Warn("duplicate violation code in reference table, keeping first",
				zap.String("code", e.Code),
			)
			continue
		}
		seen[e.Code] = struct{}{}
		coded = append(coded, e)
	}
	if len(coded) == 0 {
		return nil, model.WrapKind(model.KindSchema,
			eris.Errorf("reference table %s has no violation codes", path))
	}
	return coded, nil
}

func loadReferenceCSV(path string) ([]model.ViolationCodeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read reference %s", path)
	}
	var entries []model.ViolationCodeEntry
	if err := csvutil.Unmarshal(data, &entries); err != nil {
		return nil, model.WrapKind(model.KindSchema, eris.Wrapf(err, "decode reference %s", path))
	}
	return entries, nil
}

func loadReferenceXLSX(path string) ([]model.ViolationCodeEntry, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open reference %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, model.WrapKind(model.KindSchema, eris.Errorf("reference %s has no sheets", path))
	}
	sheet := f.Sheets[0]

	var entries []model.ViolationCodeEntry
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			// Header row; column order is fixed by the contract.
			continue
		}
		var e model.ViolationCodeEntry
		if len(cells) > 0 {
			e.Code = cells[0]
		}
		if len(cells) > 1 {
			e.Category = cells[1]
		}
		if len(cells) > 2 {
			e.Explanation = cells[2]
		}
		entries = append(entries, e)
	}
	return entries, nil
}
