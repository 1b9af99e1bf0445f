// Package runlog records scrape-run history in a local SQLite database:
// when each run happened, what document hash it saw, and how many rows
// it appended or dropped. The log is observational; failures to write
// it never fail the pipeline.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civicdata/inspection-cli/internal/model"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusNoChange = "no_change"
	StatusFailed   = "failed"
)

// Result summarizes a completed run for the log.
type Result struct {
	RowsExtracted int
	RowsAppended  int
	RowsDropped   int
	TotalRecords  int
}

// Entry is one recorded run.
type Entry struct {
	ID            string
	ScrapeDate    string
	SourceFile    string
	SourceHash    string
	Status        string
	RowsExtracted int
	RowsAppended  int
	RowsDropped   int
	TotalRecords  int
	Error         string
	StartedAt     time.Time
	CompletedAt   *time.Time
}

// Log is the SQLite-backed run history.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the run log database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Log{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	scrape_date    TEXT NOT NULL,
	source_file    TEXT NOT NULL DEFAULT '',
	source_hash    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'running',
	rows_extracted INTEGER NOT NULL DEFAULT 0,
	rows_appended  INTEGER NOT NULL DEFAULT 0,
	rows_dropped   INTEGER NOT NULL DEFAULT 0,
	total_records  INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	started_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (l *Log) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a run and returns its ID.
func (l *Log) Start(ctx context.Context, scrapeDate model.Date, sourceFile, sourceHash string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, scrape_date, source_file, source_hash, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, scrapeDate.String(), sourceFile, sourceHash, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "runlog: start run")
	}
	return id, nil
}

// Complete marks a run as successfully completed with its counters.
func (l *Log) Complete(ctx context.Context, runID string, res Result) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs
		 SET status = ?, completed_at = ?, rows_extracted = ?, rows_appended = ?,
		     rows_dropped = ?, total_records = ?
		 WHERE id = ?`,
		StatusComplete, time.Now().UTC(),
		res.RowsExtracted, res.RowsAppended, res.RowsDropped, res.TotalRecords,
		runID,
	)
	return eris.Wrapf(err, "runlog: complete run %s", runID)
}

// NoChange marks a run that found the source document unchanged.
func (l *Log) NoChange(ctx context.Context, runID string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ? WHERE id = ?`,
		StatusNoChange, time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "runlog: mark no change %s", runID)
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, runID string, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		StatusFailed, time.Now().UTC(), errMsg, runID,
	)
	return eris.Wrapf(err, "runlog: fail run %s", runID)
}

// List returns all runs, most recent first.
func (l *Log) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, scrape_date, source_file, source_hash, status,
		        rows_extracted, rows_appended, rows_dropped, total_records,
		        error, started_at, completed_at
		 FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completedAt sql.NullTime
		if err := rows.Scan(
			&e.ID, &e.ScrapeDate, &e.SourceFile, &e.SourceHash, &e.Status,
			&e.RowsExtracted, &e.RowsAppended, &e.RowsDropped, &e.TotalRecords,
			&e.Error, &e.StartedAt, &completedAt,
		); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
