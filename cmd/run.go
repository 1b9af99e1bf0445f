package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/extract"
	"github.com/civicdata/inspection-cli/internal/fetcher"
	"github.com/civicdata/inspection-cli/internal/model"
	"github.com/civicdata/inspection-cli/internal/pipeline"
	"github.com/civicdata/inspection-cli/internal/runlog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, extract, merge, transform, join",
	Long: `Run the complete inspection pipeline.

Without --pdf, the latest PDF is downloaded; if its content hash matches
the last archived snapshot the run stops with no downstream work. With
--pdf, the given local file is processed and fetching is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pdfPath, _ := cmd.Flags().GetString("pdf")
		force, _ := cmd.Flags().GetBool("force")
		yes, _ := cmd.Flags().GetBool("yes")
		scrapeDateStr, _ := cmd.Flags().GetString("scrape-date")

		var scrapeDate model.Date
		if scrapeDateStr != "" {
			parsed, err := model.ParseDate(scrapeDateStr)
			if err != nil {
				return eris.Wrap(err, "run: scrape date")
			}
			scrapeDate = parsed
		}

		f := newHTTPFetcher()
		archive := fetcher.NewArchive(cfg.Paths.ArchiveDir, f)

		runs, err := runlog.Open(cfg.Paths.RunLogDB)
		if err != nil {
			zap.L().Warn("run log unavailable", zap.Error(err))
			runs = nil
		} else {
			defer runs.Close() //nolint:errcheck
			if err := runs.Migrate(ctx); err != nil {
				zap.L().Warn("run log migration failed", zap.Error(err))
				runs = nil
			}
		}

		opts := pipeline.Options{
			PageURL:       cfg.Source.PageURL,
			PDFURL:        cfg.Source.PDFURL,
			PDFPath:       pdfPath,
			Force:         force,
			ScrapeDate:    scrapeDate,
			RawCSV:        cfg.Paths.RawCSV,
			ReferencePath: cfg.Paths.ReferenceFile,
			DatasetPath:   cfg.Paths.DatasetFile,
		}
		if !yes {
			opts.Confirm = confirmPrompt
		}

		p := pipeline.New(f, archive, extract.NewPDFExtractor(), runs)
		summary, err := p.Run(ctx, opts)
		if err != nil {
			return err
		}

		if !summary.Changed {
			fmt.Println("Source document unchanged; nothing to do.")
			return nil
		}
		fmt.Printf("Pipeline complete: %d rows extracted, %d appended, %d dropped, %d records in dataset\n",
			summary.RowsExtracted, summary.RowsAppended, summary.Dropped.Dropped(), summary.DatasetRows)
		return nil
	},
}

func init() {
	runCmd.Flags().String("pdf", "", "process a local PDF instead of downloading")
	runCmd.Flags().Bool("force", false, "process even when the source document is unchanged")
	runCmd.Flags().Bool("yes", false, "unattended mode: skip the confirmation pause")
	runCmd.Flags().String("scrape-date", "", "scrape date (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(runCmd)
}

func confirmPrompt(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
