package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
	"github.com/pegasus-osint/pegasus-bazooka/internal/source"
)

// Engine fans a query out to the selected source adapters and pushes
// the raw results through the pipeline.
type Engine struct {
	registry      *source.Registry
	pipeline      *Pipeline
	sourceTimeout time.Duration
	maxConcurrent int
}

// NewEngine creates a query engine.
func NewEngine(reg *source.Registry, p *Pipeline, sourceTimeout time.Duration, maxConcurrent int) *Engine {
	if sourceTimeout <= 0 {
		sourceTimeout = 45 * time.Second
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Engine{
		registry:      reg,
		pipeline:      p,
		sourceTimeout: sourceTimeout,
		maxConcurrent: maxConcurrent,
	}
}

// Search runs the whole query: validate, fan out, normalize, merge,
// filter. The returned Run records what happened per source; its
// status is partial when some sources failed. When every source fails,
// Search returns ErrTotalFailure together with a failed Run describing
// the attempt.
func (e *Engine) Search(ctx context.Context, q *model.QuerySpec) (*model.Run, []model.GeoRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}

	adapters, err := e.registry.Select(q.Sources)
	if err != nil {
		return nil, nil, err
	}
	if len(adapters) == 0 {
		return nil, nil, ErrNoAdapters
	}

	log := zap.L().With(zap.String("component", "pipeline.engine"))
	log.Info("query fan-out", zap.Int("sources", len(adapters)))

	// One slot per adapter keeps result order deterministic regardless
	// of completion order.
	results := make([]RawResult, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i, a := range adapters {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			sLog := log.With(zap.String("source", string(a.Name())))

			fetchCtx, cancel := context.WithTimeout(gctx, e.sourceTimeout)
			start := time.Now()
			raws, err := a.Search(fetchCtx, q)
			cancel()
			elapsed := time.Since(start)

			if err != nil {
				if fetchCtx.Err() == context.DeadlineExceeded {
					err = eris.Wrapf(err, "timed out after %s", e.sourceTimeout)
				}
				sLog.Warn("source fetch failed", zap.Error(err), zap.Duration("elapsed", elapsed))
				results[i] = RawResult{Source: a.Name(), Err: err}
				return nil // don't abort other sources on individual failure
			}

			sLog.Debug("source fetch done",
				zap.Int("records", len(raws)),
				zap.Duration("elapsed", elapsed))
			results[i] = RawResult{Source: a.Name(), Records: raws}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Only caller cancellation reaches here; per-source errors are
		// swallowed into results.
		return nil, nil, eris.Wrap(err, "pipeline: query cancelled")
	}

	merged, err := e.pipeline.MergeAll(q, results)
	if eris.Is(err, ErrTotalFailure) {
		// Hand the caller a run describing what failed so the attempt
		// can still be recorded.
		run := &model.Run{
			ID:        uuid.NewString(),
			Query:     *q,
			Status:    model.RunStatusFailed,
			CreatedAt: time.Now().UTC(),
		}
		for _, res := range results {
			run.Failures = append(run.Failures, model.SourceFailure{
				Source: res.Source,
				Reason: res.Err.Error(),
			})
		}
		return run, nil, err
	}
	if err != nil {
		return nil, nil, err
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		Query:     *q,
		Status:    model.RunStatusComplete,
		Stats:     merged.Stats,
		Failures:  merged.Failures,
		CreatedAt: time.Now().UTC(),
	}
	if len(merged.Failures) > 0 {
		run.Status = model.RunStatusPartial
	}

	log.Info("query done",
		zap.String("run_id", run.ID),
		zap.Int("records", len(merged.Records)),
		zap.Int("failures", len(merged.Failures)))
	return run, merged.Records, nil
}
