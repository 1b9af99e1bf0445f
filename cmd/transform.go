package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspection-cli/internal/merge"
	"github.com/civicdata/inspection-cli/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Normalize the raw accumulation into cleaned records",
	Long: `Read the full raw accumulation, map cells to named columns, parse dates
and scores, drop artifact rows, and expand multi-code violation cells
into one record per code. The cleaned CSV is fully rewritten each run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inPath, _ := cmd.Flags().GetString("in")
		outPath, _ := cmd.Flags().GetString("out")

		rows, err := merge.NewStore(inPath).Load()
		if err != nil {
			return err
		}

		records, stats := transform.Normalize(rows)
		if err := transform.WriteRecords(outPath, records); err != nil {
			return err
		}

		fmt.Printf("Cleaned %d raw rows into %d records (%d dropped) -> %s\n",
			len(rows), len(records), stats.Dropped(), outPath)
		return nil
	},
}

func init() {
	transformCmd.Flags().String("in", "food_scores.csv", "raw accumulation CSV path")
	transformCmd.Flags().String("out", "food_scores_cleaned.csv", "cleaned records CSV path")
	rootCmd.AddCommand(transformCmd)
}
