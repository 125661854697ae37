// Package fetcher downloads and parses data from the platform APIs and
// from bulk dumps (HTTP, FTP, CSV, JSON, XLSX, ZIP).
package fetcher

import (
	"context"
	"io"
	"net/http"
)

// Fetcher defines the interface for retrieving remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// Get fetches the URL with extra request headers (API tokens and
	// the like) and returns the response body.
	Get(ctx context.Context, url string, header http.Header) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
