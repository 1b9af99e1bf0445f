package enrich

import (
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/fileio"
	"github.com/civicdata/inspection-cli/internal/model"
)

// Join left-joins inspection records against the reference table on
// violation code, matched exactly and case-sensitively. Every input
// record produces exactly one output record: an unmatched code yields
// empty category and explanation, never record loss.
func Join(records []model.InspectionRecord, ref []model.ViolationCodeEntry) []model.EnrichedRecord {
	index := make(map[string]model.ViolationCodeEntry, len(ref))
	for _, e := range ref {
		index[e.Code] = e
	}

	enriched := make([]model.EnrichedRecord, 0, len(records))
	unmatched := 0
	for _, r := range records {
		e := model.EnrichedRecord{
			Permit:         r.Permit,
			Establishment:  r.Establishment,
			Address:        r.Address,
			Date:           r.Date,
			InspectionType: r.InspectionType,
			Classification: r.Classification,
			Score:          r.Score,
			Violation:      r.Violation,
			ScrapeDate:     r.ScrapeDate,
			SourceFile:     r.SourceFile,
			Page:           r.Page,
			Table:          r.Table,
		}
		if entry, ok := index[r.Violation]; ok {
			e.Category = entry.Category
			e.Explanation = entry.Explanation
		} else if r.Violation != "" {
			unmatched++
		}
		enriched = append(enriched, e)
	}

	if unmatched > 0 {
		zap.L().Warn("violation codes without reference entries",
			zap.Int("records", unmatched),
		)
	}
	return enriched
}

// WriteDataset fully rewrites the published dataset at path,
// atomically. The column names and order come from the EnrichedRecord
// csv tags and are a compatibility contract with downstream analyses.
func WriteDataset(path string, enriched []model.EnrichedRecord) error {
	data, err := csvutil.Marshal(enriched)
	if err != nil {
		return model.WrapKind(model.KindWrite, eris.Wrap(err, "marshal dataset"))
	}
	return fileio.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
