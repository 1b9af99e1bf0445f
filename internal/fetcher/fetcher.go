// Package fetcher downloads the source inspection PDF and maintains the
// dated archive of document snapshots, gated on content hash so an
// unchanged remote produces no new archive entries and no downstream
// work.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
