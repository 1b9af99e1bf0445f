// Package pipeline sequences the inspection ETL stages: fetch the
// source PDF, extract raw rows, merge them into the accumulation
// store, normalize the full history, and join it with the violation
// reference table into the published dataset. Stages run strictly in
// order; any stage failure aborts the run and leaves previously
// committed artifacts at their last-good state.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/enrich"
	"github.com/civicdata/inspection-cli/internal/fetcher"
	"github.com/civicdata/inspection-cli/internal/merge"
	"github.com/civicdata/inspection-cli/internal/model"
	"github.com/civicdata/inspection-cli/internal/runlog"
	"github.com/civicdata/inspection-cli/internal/transform"
)

// Archiver fetches the source document into the dated archive.
type Archiver interface {
	Fetch(ctx context.Context, url string, scrapeDate model.Date, force bool) (*fetcher.Result, error)
}

// Extractor turns a PDF into raw table rows.
type Extractor interface {
	Extract(pdfPath string, scrapeDate model.Date) ([]model.RawRow, error)
}

// StageError names the stage whose failure aborted the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrAborted is returned when the operator declines the confirmation
// pause before the accumulation write.
var ErrAborted = eris.New("aborted by operator")

// Options carries every path and switch a run needs. There is no other
// state: the accumulation and dataset locations are explicit inputs,
// and atomic replace is the only mutation primitive.
type Options struct {
	// PageURL is scanned for the PDF link when PDFURL is empty.
	PageURL string
	// PDFURL is fetched directly when set.
	PDFURL string
	// PDFPath skips fetching entirely and processes a local file.
	PDFPath string
	// Force processes the document even when its hash is unchanged.
	Force bool
	// ScrapeDate overrides the scrape date; zero means today.
	ScrapeDate model.Date

	RawCSV        string
	ReferencePath string
	DatasetPath   string

	// Confirm, when non-nil, is asked before the accumulation write.
	// Nil means unattended mode: proceed without pausing.
	Confirm func(prompt string) bool
}

// Summary reports what a run did.
type Summary struct {
	ScrapeDate    model.Date
	SourceFile    string
	SourceHash    string
	Changed       bool
	RowsExtracted int
	RowsAppended  int
	Dropped       transform.Stats
	TotalRecords  int
	DatasetRows   int
}

// Pipeline owns the stage collaborators.
type Pipeline struct {
	fetcher   fetcher.Fetcher
	archive   Archiver
	extractor Extractor
	runs      *runlog.Log // optional
}

// New creates a Pipeline. runs may be nil to skip run logging.
func New(f fetcher.Fetcher, archive Archiver, extractor Extractor, runs *runlog.Log) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		archive:   archive,
		extractor: extractor,
		runs:      runs,
	}
}

// Run executes the full pipeline. When the remote document is unchanged
// and Force is unset, the run stops cleanly after the fetch stage with
// Summary.Changed == false and no downstream work.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	scrapeDate := opts.ScrapeDate
	if scrapeDate.IsZero() {
		scrapeDate = model.Today()
	}
	log := zap.L().With(zap.String("scrape_date", scrapeDate.String()))

	summary := &Summary{ScrapeDate: scrapeDate}

	pdfPath, err := p.fetch(ctx, opts, scrapeDate, summary)
	if err != nil {
		return nil, &StageError{Stage: "fetch", Err: err}
	}
	runID := p.logStart(ctx, scrapeDate, summary)
	if !summary.Changed && !opts.Force && opts.PDFPath == "" {
		log.Info("source unchanged, nothing to do")
		p.logNoChange(ctx, runID)
		return summary, nil
	}

	rows, err := p.extractor.Extract(pdfPath, scrapeDate)
	if err != nil {
		return nil, p.fail(ctx, runID, &StageError{Stage: "extract", Err: err})
	}
	summary.RowsExtracted = len(rows)

	store := merge.NewStore(opts.RawCSV)
	history, err := store.Load()
	if err != nil {
		return nil, p.fail(ctx, runID, &StageError{Stage: "merge", Err: err})
	}
	merged := merge.Merge(history, rows)
	summary.RowsAppended = len(merged) - len(history)

	if opts.Confirm != nil {
		prompt := fmt.Sprintf("Append %d new rows to %s?", summary.RowsAppended, opts.RawCSV)
		if !opts.Confirm(prompt) {
			return nil, p.fail(ctx, runID, &StageError{Stage: "merge", Err: ErrAborted})
		}
	}
	if err := store.Write(merged); err != nil {
		return nil, p.fail(ctx, runID, &StageError{Stage: "merge", Err: err})
	}

	records, stats := transform.Normalize(merged)
	summary.Dropped = stats
	summary.TotalRecords = len(records)

	ref, err := enrich.LoadReference(opts.ReferencePath)
	if err != nil {
		return nil, p.fail(ctx, runID, &StageError{Stage: "enrich", Err: err})
	}
	enriched := enrich.Join(records, ref)
	if err := enrich.WriteDataset(opts.DatasetPath, enriched); err != nil {
		return nil, p.fail(ctx, runID, &StageError{Stage: "enrich", Err: err})
	}
	summary.DatasetRows = len(enriched)

	log.Info("pipeline complete",
		zap.Int("rows_extracted", summary.RowsExtracted),
		zap.Int("rows_appended", summary.RowsAppended),
		zap.Int("rows_dropped", stats.Dropped()),
		zap.Int("total_records", summary.TotalRecords),
		zap.Int("dataset_rows", summary.DatasetRows),
	)
	p.logComplete(ctx, runID, summary)
	return summary, nil
}

// fetch resolves the PDF to process: a local path, a direct URL, or a
// link discovered on the source page.
func (p *Pipeline) fetch(ctx context.Context, opts Options, scrapeDate model.Date, summary *Summary) (string, error) {
	if opts.PDFPath != "" {
		summary.SourceFile = opts.PDFPath
		summary.Changed = true
		return opts.PDFPath, nil
	}

	url := opts.PDFURL
	if url == "" {
		discovered, err := fetcher.DiscoverPDFLink(ctx, p.fetcher, opts.PageURL)
		if err != nil {
			return "", err
		}
		zap.L().Info("discovered source pdf", zap.String("url", discovered))
		url = discovered
	}

	res, err := p.archive.Fetch(ctx, url, scrapeDate, opts.Force)
	if err != nil {
		return "", err
	}
	summary.SourceFile = res.Path
	summary.SourceHash = res.Hash
	summary.Changed = res.Changed
	return res.Path, nil
}

// Run-log helpers. Logging failures are reported but never fail a run.

func (p *Pipeline) logStart(ctx context.Context, scrapeDate model.Date, summary *Summary) string {
	if p.runs == nil {
		return ""
	}
	id, err := p.runs.Start(ctx, scrapeDate, summary.SourceFile, summary.SourceHash)
	if err != nil {
		zap.L().Warn("run log unavailable", zap.Error(err))
		return ""
	}
	return id
}

func (p *Pipeline) logNoChange(ctx context.Context, runID string) {
	if p.runs == nil || runID == "" {
		return
	}
	if err := p.runs.NoChange(ctx, runID); err != nil {
		zap.L().Warn("run log update failed", zap.Error(err))
	}
}

func (p *Pipeline) logComplete(ctx context.Context, runID string, summary *Summary) {
	if p.runs == nil || runID == "" {
		return
	}
	err := p.runs.Complete(ctx, runID, runlog.Result{
		RowsExtracted: summary.RowsExtracted,
		RowsAppended:  summary.RowsAppended,
		RowsDropped:   summary.Dropped.Dropped(),
		TotalRecords:  summary.TotalRecords,
	})
	if err != nil {
		zap.L().Warn("run log update failed", zap.Error(err))
	}
}

func (p *Pipeline) fail(ctx context.Context, runID string, stageErr *StageError) error {
	if p.runs != nil && runID != "" {
		if err := p.runs.Fail(ctx, runID, stageErr.Error()); err != nil {
			zap.L().Warn("run log update failed", zap.Error(err))
		}
	}
	return stageErr
}
