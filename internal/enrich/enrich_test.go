package enrich

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/civicdata/inspection-cli/internal/model"
)

func record(permit, violation string) model.InspectionRecord {
	return model.InspectionRecord{
		Permit:         permit,
		Establishment:  "Joes Diner",
		Address:        "12 Main St",
		Date:           model.NewDate(2024, 6, 30),
		InspectionType: "Regular",
		Classification: "Food",
		Violation:      violation,
		ScrapeDate:     model.NewDate(2025, 10, 6),
		SourceFile:     "report.pdf",
		Page:           1,
		Table:          1,
	}
}

var refTable = []model.ViolationCodeEntry{
	{Code: "13", Category: "Food Protection", Explanation: "Food protected from contamination"},
	{Code: "21", Category: "Temperature", Explanation: "Hot holding temperature maintained"},
}

func TestJoin_Completeness(t *testing.T) {
	records := []model.InspectionRecord{
		record("12345", "13"),
		record("12345", "21"),
		record("67890", "99"), // absent from the reference table
		record("67890", ""),   // violation-free inspection
	}

	enriched := Join(records, refTable)
	require.Len(t, enriched, len(records), "join never duplicates or drops rows")

	assert.Equal(t, "Food Protection", enriched[0].Category)
	assert.Equal(t, "Temperature", enriched[1].Category)

	// Unmatched code keeps the record with empty enrichment.
	assert.Equal(t, "99", enriched[2].Violation)
	assert.Empty(t, enriched[2].Category)
	assert.Empty(t, enriched[2].Explanation)

	assert.Empty(t, enriched[3].Category)
}

func TestJoin_CaseSensitive(t *testing.T) {
	ref := []model.ViolationCodeEntry{{Code: "1a", Category: "Plumbing"}}
	enriched := Join([]model.InspectionRecord{record("1", "1A")}, ref)
	require.Len(t, enriched, 1)
	assert.Empty(t, enriched[0].Category, "codes match case-sensitively")
}

func TestLoadReference_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CodeViolations.csv")
	csv := "Violation Code,Category,Explanation\n" +
		"13,Food Protection,Food protected from contamination\n" +
		"21,Temperature,Hot holding temperature maintained\n" +
		"13,Duplicate,Kept first\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	entries, err := LoadReference(path)
	require.NoError(t, err)
	require.Len(t, entries, 2, "duplicate code keeps the first entry")
	assert.Equal(t, "13", entries[0].Code)
	assert.Equal(t, "Food Protection", entries[0].Category)
}

func writeReferenceXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Violations")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "CodeViolations.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadReference_XLSX(t *testing.T) {
	path := writeReferenceXLSX(t, [][]string{
		{"Violation Code", "Category", "Explanation"},
		{"13", "Food Protection", "Food protected from contamination"},
		{"21", "Temperature"}, // short row: no explanation column
		{"13", "Duplicate", "Kept first"},
	})

	entries, err := LoadReference(path)
	require.NoError(t, err)
	require.Len(t, entries, 2, "header skipped, duplicate code keeps the first entry")

	assert.Equal(t, "13", entries[0].Code)
	assert.Equal(t, "Food Protection", entries[0].Category)
	assert.Equal(t, "Food protected from contamination", entries[0].Explanation)

	assert.Equal(t, "21", entries[1].Code)
	assert.Equal(t, "Temperature", entries[1].Category)
	assert.Empty(t, entries[1].Explanation)
}

func TestLoadReference_Missing(t *testing.T) {
	_, err := LoadReference(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadReference_NoCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("Violation Code,Category,Explanation\n"), 0o644))

	_, err := LoadReference(path)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindSchema))
}

func TestWriteDataset_ColumnContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joined.csv")
	enriched := Join([]model.InspectionRecord{record("12345", "13")}, refTable)

	require.NoError(t, WriteDataset(path, enriched))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"Permit #,Establishment Name,Address,Date,Inspection Type,Food or Retail,Score,Violations,ScrapeDate,SourceFile,Page,Table,Category,Explanation",
		lines[0],
	)
	assert.Contains(t, lines[1], "12345")
	assert.Contains(t, lines[1], "2025-10-06")
	assert.Contains(t, lines[1], "Food Protection")
}

func TestWriteDataset_FullRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joined.csv")

	require.NoError(t, WriteDataset(path, Join([]model.InspectionRecord{
		record("12345", "13"),
		record("67890", "21"),
	}, refTable)))
	require.NoError(t, WriteDataset(path, Join([]model.InspectionRecord{
		record("12345", "13"),
	}, refTable)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2, "dataset is fully regenerated, not appended")
}
