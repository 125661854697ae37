package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/merge"
	"github.com/pegasus-osint/pegasus-bazooka/internal/normalize"
	"github.com/pegasus-osint/pegasus-bazooka/internal/pipeline"
	"github.com/pegasus-osint/pegasus-bazooka/internal/source"
	"github.com/pegasus-osint/pegasus-bazooka/internal/store"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEngine wires the fetcher, adapters, normalizer, and merge engine
// into a query engine.
func initEngine() (*pipeline.Engine, error) {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTP.Timeout(),
		MaxRetries:  cfg.HTTP.MaxRetries,
		RatePerHost: rate.Limit(cfg.HTTP.RatePerHost),
	})
	reg := source.BuildRegistry(cfg, f)

	mappings := normalize.DefaultMappings()
	if cfg.Output.MappingFile != "" {
		if err := mappings.LoadOverrides(cfg.Output.MappingFile); err != nil {
			return nil, err
		}
	}

	merger := merge.New(merge.Options{
		DistanceMeters:  cfg.Dedup.DistanceMeters,
		TimeWindow:      cfg.Dedup.TimeWindow(),
		TextSimilarity:  cfg.Dedup.TextSimilarity,
		TextCheckEnable: cfg.Dedup.TextCheckEnable,
	})

	p := pipeline.New(normalize.New(mappings), merger)
	return pipeline.NewEngine(reg, p, cfg.Search.SourceTimeout(), cfg.Search.MaxConcurrent), nil
}
