package transform

import (
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/civicdata/inspection-cli/internal/fileio"
	"github.com/civicdata/inspection-cli/internal/model"
)

// WriteRecords writes cleaned inspection records to path, atomically.
func WriteRecords(path string, records []model.InspectionRecord) error {
	data, err := csvutil.Marshal(records)
	if err != nil {
		return model.WrapKind(model.KindWrite, eris.Wrap(err, "marshal records"))
	}
	return fileio.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadRecords loads cleaned inspection records from path.
func ReadRecords(path string) ([]model.InspectionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read records %s", path)
	}
	var records []model.InspectionRecord
	if err := csvutil.Unmarshal(data, &records); err != nil {
		return nil, model.WrapKind(model.KindSchema, eris.Wrapf(err, "decode records %s", path))
	}
	return records, nil
}
