package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/inspection-cli/internal/model"
)

func TestWriteReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.csv")
	score := 95.0
	records := []model.InspectionRecord{
		{
			Permit:         "12345",
			Establishment:  "Joes Diner",
			Address:        "12 Main St",
			Date:           model.NewDate(2024, 6, 30),
			InspectionType: "Regular",
			Classification: "Food",
			Score:          &score,
			Violation:      "13",
			ScrapeDate:     model.NewDate(2025, 10, 6),
			SourceFile:     "report.pdf",
			Page:           3,
			Table:          1,
		},
		{
			Permit:        "67890",
			Establishment: "Corner Mart",
			Date:          model.NewDate(2024, 7, 2),
			ScrapeDate:    model.NewDate(2025, 10, 6),
			// nil score round-trips as an empty cell
		},
	}

	require.NoError(t, WriteRecords(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t,
		"Permit #,Establishment Name,Address,Date,Inspection Type,Food or Retail,Score,Violations,ScrapeDate,SourceFile,Page,Table",
		header,
	)

	back, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, back, 2)
	require.NotNil(t, back[0].Score)
	assert.Equal(t, 95.0, *back[0].Score)
	assert.Nil(t, back[1].Score)
	assert.Equal(t, "2024-06-30", back[0].Date.String())
	assert.Equal(t, "2025-10-06", back[0].ScrapeDate.String())
}
