package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspection-cli/internal/enrich"
	"github.com/civicdata/inspection-cli/internal/transform"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join cleaned records with violation-code descriptions",
	Long: `Left-join cleaned inspection records against the violation-code
reference table. Records whose code has no reference entry keep empty
category and explanation columns; no record is ever dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scoresPath, _ := cmd.Flags().GetString("scores")
		codesPath, _ := cmd.Flags().GetString("codes")
		outPath, _ := cmd.Flags().GetString("out")
		if codesPath == "" {
			codesPath = cfg.Paths.ReferenceFile
		}

		records, err := transform.ReadRecords(scoresPath)
		if err != nil {
			return err
		}
		ref, err := enrich.LoadReference(codesPath)
		if err != nil {
			return err
		}

		enriched := enrich.Join(records, ref)
		if err := enrich.WriteDataset(outPath, enriched); err != nil {
			return err
		}

		fmt.Printf("Joined %d records against %d violation codes -> %s\n",
			len(enriched), len(ref), outPath)
		return nil
	},
}

func init() {
	joinCmd.Flags().String("scores", "food_scores_cleaned.csv", "cleaned records CSV path")
	joinCmd.Flags().String("codes", "", "violation-code reference file (.csv or .xlsx)")
	joinCmd.Flags().String("out", "joined_scores_violations.csv", "published dataset path")
	rootCmd.AddCommand(joinCmd)
}
