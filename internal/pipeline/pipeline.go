package pipeline

import (
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/merge"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
	"github.com/pegasus-osint/pegasus-bazooka/internal/normalize"
)

// RawResult is one adapter's outcome: either its raw record batch or
// the error that kept it from producing one.
type RawResult struct {
	Source  model.Source
	Records []model.RawRecord
	Err     error
}

// Result is the merged outcome of a whole query.
type Result struct {
	Records  []model.GeoRecord
	Stats    model.RunStats
	Failures []model.SourceFailure
}

// Pipeline normalizes, merges, and filters adapter output. It holds no
// per-query state and is safe for concurrent use.
type Pipeline struct {
	normalizer *normalize.Normalizer
	merger     *merge.Engine
}

// New creates a pipeline.
func New(n *normalize.Normalizer, m *merge.Engine) *Pipeline {
	return &Pipeline{normalizer: n, merger: m}
}

// MergeAll turns per-source raw results into the canonical record
// sequence. Individual source failures become annotations, not errors;
// only the case where every source failed is surfaced as
// ErrTotalFailure. All sources succeeding with zero valid records is a
// legitimate empty result.
func (p *Pipeline) MergeAll(q *model.QuerySpec, results []RawResult) (*Result, error) {
	out := &Result{
		Stats: model.RunStats{PerSource: make(map[model.Source]model.SourceStats, len(results))},
	}

	batches := make([]model.SourceRecords, 0, len(results))
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			out.Failures = append(out.Failures, model.SourceFailure{
				Source: res.Source,
				Reason: res.Err.Error(),
			})
			zap.L().Warn("source unavailable",
				zap.String("source", string(res.Source)),
				zap.Error(res.Err))
			continue
		}

		records, stats := p.normalizer.NormalizeAll(res.Source, res.Records)
		out.Stats.PerSource[res.Source] = stats
		batches = append(batches, model.SourceRecords{Source: res.Source, Records: records})
	}

	if len(results) > 0 && failed == len(results) {
		return nil, ErrTotalFailure
	}

	merged, dropped := p.merger.Merge(batches)
	out.Stats.CrossDedup = dropped

	merged, filtered := applyFilters(q, merged)
	out.Stats.Filtered = filtered

	if q.MaxResults > 0 && len(merged) > q.MaxResults {
		merged = merged[:q.MaxResults]
	}

	out.Records = merged
	out.Stats.Returned = len(merged)
	return out, nil
}
