package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspection-cli/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show scrape-run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runs, err := runlog.Open(cfg.Paths.RunLogDB)
		if err != nil {
			return err
		}
		defer runs.Close() //nolint:errcheck
		if err := runs.Migrate(ctx); err != nil {
			return err
		}

		entries, err := runs.List(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSCRAPE DATE\tSTATUS\tEXTRACTED\tAPPENDED\tDROPPED\tTOTAL\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				e.StartedAt.Format("2006-01-02 15:04"),
				e.ScrapeDate, e.Status,
				e.RowsExtracted, e.RowsAppended, e.RowsDropped, e.TotalRecords,
				e.SourceFile,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
