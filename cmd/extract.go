package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civicdata/inspection-cli/internal/extract"
	"github.com/civicdata/inspection-cli/internal/merge"
	"github.com/civicdata/inspection-cli/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract table rows from a PDF into the raw accumulation",
	Long: `Extract table rows from an inspection PDF and merge them into the raw
accumulation CSV. Rows already present in the accumulation (same cells,
provenance, and scrape date) are not duplicated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath, _ := cmd.Flags().GetString("pdf")
		outPath, _ := cmd.Flags().GetString("out")
		scrapeDateStr, _ := cmd.Flags().GetString("scrape-date")

		var scrapeDate model.Date
		if scrapeDateStr != "" {
			parsed, err := model.ParseDate(scrapeDateStr)
			if err != nil {
				return eris.Wrap(err, "extract: scrape date")
			}
			scrapeDate = parsed
		}

		rows, err := extract.NewPDFExtractor().Extract(pdfPath, scrapeDate)
		if err != nil {
			return err
		}

		store := merge.NewStore(outPath)
		history, err := store.Load()
		if err != nil {
			return err
		}
		merged := merge.Merge(history, rows)
		if err := store.Write(merged); err != nil {
			return err
		}

		fmt.Printf("Extracted %d rows, appended %d to %s\n", len(rows), len(merged)-len(history), outPath)
		return nil
	},
}

func init() {
	extractCmd.Flags().String("pdf", "", "path to the inspection PDF")
	extractCmd.Flags().String("out", "food_scores.csv", "raw accumulation CSV path")
	extractCmd.Flags().String("scrape-date", "", "scrape date (YYYY-MM-DD), defaults to today")
	_ = extractCmd.MarkFlagRequired("pdf")
	rootCmd.AddCommand(extractCmd)
}
