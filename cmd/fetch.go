package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspection-cli/internal/fetcher"
	"github.com/civicdata/inspection-cli/internal/model"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the latest inspection PDF into the archive",
	Long: `Download the latest inspection PDF from the health department website.

The document is archived under a date-stamped filename only when its
content hash differs from the last archived snapshot, so re-running
against an unchanged remote leaves the archive untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

		f := newHTTPFetcher()
		url := cfg.Source.PDFURL
		if url == "" {
			discovered, err := fetcher.DiscoverPDFLink(ctx, f, cfg.Source.PageURL)
			if err != nil {
				return err
			}
			url = discovered
		}

		archive := fetcher.NewArchive(cfg.Paths.ArchiveDir, f)
		res, err := archive.Fetch(ctx, url, model.Today(), force)
		if err != nil {
			return err
		}

		if res.Changed {
			fmt.Printf("Archived new snapshot: %s\n", res.Path)
		} else {
			fmt.Printf("No update needed, current snapshot: %s\n", res.Path)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("force", false, "archive the download even if the content hash is unchanged")
	rootCmd.AddCommand(fetchCmd)
}

func newHTTPFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Source.UserAgent,
		Timeout:    time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		MaxRetries: cfg.HTTP.MaxRetries,
		RatePerSec: cfg.HTTP.RatePerSec,
	})
}
