package model

import "time"

// RunStatus represents the final state of a search run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete" // all sources answered
	RunStatusPartial  RunStatus = "partial"  // some sources failed
	RunStatusFailed   RunStatus = "failed"   // every source failed
)

// SourceFailure annotates one source that contributed zero records
// because it was unavailable.
type SourceFailure struct {
	Source Source `json:"source"`
	Reason string `json:"reason"`
}

// SourceStats counts what happened to one source's records on their way
// through the pipeline.
type SourceStats struct {
	Fetched    int `json:"fetched"`    // raw records returned by the adapter
	Rejected   int `json:"rejected"`   // dropped by the normalizer
	Duplicates int `json:"duplicates"` // collapsed by within-source dedup
}

// RunStats aggregates pipeline bookkeeping for a whole run.
type RunStats struct {
	PerSource  map[Source]SourceStats `json:"per_source"`
	CrossDedup int                    `json:"cross_dedup"` // cross-source duplicates collapsed
	Filtered   int                    `json:"filtered"`    // dropped by radius/date/keyword post-filters
	Returned   int                    `json:"returned"`
}

// Run is one persisted search invocation with its outcome.
type Run struct {
	ID        string          `json:"id"`
	Query     QuerySpec       `json:"query"`
	Status    RunStatus       `json:"status"`
	Stats     RunStats        `json:"stats"`
	Failures  []SourceFailure `json:"failures,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
