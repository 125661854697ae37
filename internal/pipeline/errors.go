package pipeline

import "github.com/rotisserie/eris"

// ErrTotalFailure is returned by MergeAll when every queried source
// failed outright, leaving nothing to merge. Partial failures do not
// trigger it; they are reported as annotations alongside the surviving
// records.
var ErrTotalFailure = eris.New("pipeline: all sources failed")

// ErrNoAdapters is returned when the query resolves to zero usable
// source adapters before any fetch is attempted.
var ErrNoAdapters = eris.New("pipeline: no adapters selected")
