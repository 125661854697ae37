// Package source provides the per-platform adapters that fetch raw
// geolocation records. Each adapter is a thin request builder over one
// public API; normalization of the responses happens downstream.
package source

import (
	"context"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Adapter defines the interface each platform must implement.
type Adapter interface {
	// Name returns the source tag (e.g., "flickr", "pastvu").
	Name() model.Source

	// Configured reports whether the adapter has the credentials and
	// switches it needs to issue requests.
	Configured() bool

	// Search issues the query against the platform and returns raw
	// records in the platform's native shape. Queries the platform
	// cannot serve (e.g., keyword-only against a geo-only API) return
	// an empty list, not an error.
	Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error)
}
