package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/inspection-cli/internal/model"
)

func rawRow(cells [8]string) model.RawRow {
	return model.RawRow{
		Cells:      cells,
		ScrapeDate: model.NewDate(2025, 10, 6),
		Page:       3,
		Table:      1,
		SourceFile: "report.pdf",
	}
}

func TestNormalize_SingleRecord(t *testing.T) {
	rows := []model.RawRow{rawRow([8]string{
		"12345", "Joes Diner", "12 Main St", "06/30/2024", "Regular", "Food", "95", "13",
	})}

	records, stats := Normalize(rows)
	require.Len(t, records, 1)
	assert.Zero(t, stats.Dropped())

	rec := records[0]
	assert.Equal(t, "12345", rec.Permit)
	assert.Equal(t, "Joes Diner", rec.Establishment)
	assert.Equal(t, "12 Main St", rec.Address)
	assert.Equal(t, "2024-06-30", rec.Date.String())
	assert.Equal(t, "Regular", rec.InspectionType)
	assert.Equal(t, "Food", rec.Classification)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 95.0, *rec.Score)
	assert.Equal(t, "13", rec.Violation)
	assert.Equal(t, "report.pdf", rec.SourceFile)
	assert.Equal(t, 3, rec.Page)
}

func TestNormalize_ViolationSplitting(t *testing.T) {
	rows := []model.RawRow{rawRow([8]string{
		"12345", "Joes Diner", "12 Main St", "06/30/2024", "Regular", "Food", "95", "13,21,34",
	})}

	records, _ := Normalize(rows)
	require.Len(t, records, 3, "three codes expand into three records")

	codes := []string{records[0].Violation, records[1].Violation, records[2].Violation}
	assert.Equal(t, []string{"13", "21", "34"}, codes)
	for _, rec := range records {
		assert.Equal(t, "12345", rec.Permit)
		assert.Equal(t, "2024-06-30", rec.Date.String())
		require.NotNil(t, rec.Score)
		assert.Equal(t, 95.0, *rec.Score)
	}
}

func TestNormalize_NoViolations(t *testing.T) {
	rows := []model.RawRow{rawRow([8]string{
		"12345", "Joes Diner", "12 Main St", "06/30/2024", "Regular", "Food", "100", "",
	})}

	records, _ := Normalize(rows)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Violation)
}

func TestNormalize_NullScoreRetained(t *testing.T) {
	rows := []model.RawRow{rawRow([8]string{
		"12345", "Joes Diner", "12 Main St", "06/30/2024", "Regular", "Food", "N/A", "13",
	})}

	records, stats := Normalize(rows)
	require.Len(t, records, 1, "a score-less row is kept")
	assert.Nil(t, records[0].Score)
	assert.Zero(t, stats.Dropped())
}

func TestNormalize_DropsHeaderRows(t *testing.T) {
	rows := []model.RawRow{
		rawRow([8]string{"Permit #", "Establishment Name", "Address", "Date", "Inspection Type", "Food or Retail", "Score", "Violations"}),
		rawRow([8]string{"12345", "Joes Diner", "12 Main St", "06/30/2024", "Regular", "Food", "95", ""}),
	}

	records, stats := Normalize(rows)
	require.Len(t, records, 1)
	assert.Equal(t, 1, stats.BadPermit)
}

func TestNormalize_DropsBadDates(t *testing.T) {
	rows := []model.RawRow{
		rawRow([8]string{"12345", "Joes Diner", "12 Main St", "not a date", "Regular", "Food", "95", ""}),
		rawRow([8]string{"67890", "Corner Mart", "9 Elm Ave", "07/02/2024", "Regular", "Retail", "88", ""}),
	}

	records, stats := Normalize(rows)
	require.Len(t, records, 1)
	assert.Equal(t, 1, stats.BadDate)
	assert.Equal(t, "67890", records[0].Permit)
}

func TestNormalize_DropsEmptyRows(t *testing.T) {
	rows := []model.RawRow{
		rawRow([8]string{}),
		rawRow([8]string{"", "", "", "", "", "", "", "13"}),
	}

	records, stats := Normalize(rows)
	assert.Empty(t, records)
	assert.Equal(t, 2, stats.Dropped())
}

func TestNormalize_ScrapeDateRoundTrip(t *testing.T) {
	scrape, err := model.ParseDate("2025-10-06")
	require.NoError(t, err)

	row := rawRow([8]string{"12345", "Joes Diner", "12 Main St", "06/30/2024", "Regular", "Food", "95", "13,21"})
	row.ScrapeDate = scrape

	records, _ := Normalize([]model.RawRow{row})
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, "2025-10-06", rec.ScrapeDate.String())
	}
}

func TestSplitViolations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"comma", "13,21,34", []string{"13", "21", "34"}},
		{"space", "13 21 34", []string{"13", "21", "34"}},
		{"mixed", "13, 21  34", []string{"13", "21", "34"}},
		{"semicolon", "13;21", []string{"13", "21"}},
		{"single", "13", []string{"13"}},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitViolations(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"all caps title-cased", "JOES DINER", "Joes Diner"},
		{"mixed case untouched", "Joe's Diner", "Joe's Diner"},
		{"whitespace collapsed", "  Joes   Diner ", "Joes Diner"},
		{"numeric only untouched", "123", "123"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.in))
		})
	}
}
