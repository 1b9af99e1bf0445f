package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/fileio"
	"github.com/civicdata/inspection-cli/internal/model"
)

// hashSidecar records the SHA-256 and filename of the most recently
// archived snapshot, one line: "<hex hash> <filename>".
const hashSidecar = "latest.sha256"

// Result reports the outcome of an archive fetch.
type Result struct {
	// Path of the archived PDF (the new snapshot, or the previous one
	// when the remote is unchanged).
	Path string
	// Hash is the SHA-256 of the document content.
	Hash string
	// Changed is false when the remote content matched the last
	// archived snapshot and nothing was written.
	Changed bool
}

// Archive is the dated store of PDF snapshots. New snapshots are only
// admitted when their content hash differs from the last one, so
// re-running against an unchanged remote is a no-op.
type Archive struct {
	Dir     string
	Fetcher Fetcher
}

// NewArchive creates an Archive rooted at dir.
func NewArchive(dir string, f Fetcher) *Archive {
	return &Archive{Dir: dir, Fetcher: f}
}

// Fetch downloads the document at url, compares its hash against the
// last archived snapshot, and archives it under a date-stamped name
// only when the content changed (or force is set). The archive never
// contains a truncated file: the download lands in a temp file that is
// renamed in on success and removed on any failure.
func (a *Archive) Fetch(ctx context.Context, url string, scrapeDate model.Date, force bool) (*Result, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return nil, model.WrapKind(model.KindFetch, eris.Wrapf(err, "create archive dir %s", a.Dir))
	}

	body, err := a.Fetcher.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(a.Dir, ".download-*.pdf")
	if err != nil {
		return nil, model.WrapKind(model.KindFetch, eris.Wrap(err, "create temp download"))
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, hasher), body)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		if err == nil {
			err = closeErr
		}
		return nil, model.WrapKind(model.KindFetch, eris.Wrapf(err, "download %s", url))
	}
	hash := hex.EncodeToString(hasher.Sum(nil))

	lastHash, lastName := a.readLastHash()
	if !force && hash == lastHash && lastName != "" {
		_ = os.Remove(tmpPath)
		zap.L().Info("source document unchanged",
			zap.String("hash", hash),
			zap.String("archived", lastName),
		)
		return &Result{Path: filepath.Join(a.Dir, lastName), Hash: hash, Changed: false}, nil
	}

	name := snapshotName(url, scrapeDate)
	target := filepath.Join(a.Dir, name)
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return nil, model.WrapKind(model.KindFetch, eris.Wrapf(err, "archive %s", target))
	}

	sidecar := fmt.Sprintf("%s %s\n", hash, name)
	if err := fileio.WriteFileAtomic(filepath.Join(a.Dir, hashSidecar), []byte(sidecar)); err != nil {
		return nil, err
	}

	zap.L().Info("archived new snapshot",
		zap.String("path", target),
		zap.String("hash", hash),
	)
	return &Result{Path: target, Hash: hash, Changed: true}, nil
}

// readLastHash returns the recorded hash and filename of the most
// recent snapshot, or empty strings when none exists.
func (a *Archive) readLastHash() (hash, name string) {
	data, err := os.ReadFile(filepath.Join(a.Dir, hashSidecar))
	if err != nil {
		return "", ""
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return "", ""
	}
	return fields[0], fields[1]
}

// snapshotName embeds the scrape date into the archived filename,
// e.g. "Food-Retail_Inspections_20251006.pdf".
func snapshotName(url string, scrapeDate model.Date) string {
	base := filepath.Base(strings.Split(url, "?")[0])
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." || stem == "/" {
		stem = "snapshot"
	}
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("%s_%s%s", stem, scrapeDate.Format("20060102"), ext)
}
