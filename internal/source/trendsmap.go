package source

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Trendsmap queries localized trending-topic clusters. Every trend comes
// back pinned to the coordinate of its cluster centroid.
type Trendsmap struct {
	cfg config.KeyedSource
	f   fetcher.Fetcher
}

// NewTrendsmap creates the Trendsmap adapter.
func NewTrendsmap(cfg config.KeyedSource, f fetcher.Fetcher) *Trendsmap {
	return &Trendsmap{cfg: cfg, f: f}
}

func (a *Trendsmap) Name() model.Source { return model.SourceTrendsmap }

func (a *Trendsmap) Configured() bool { return a.cfg.Enabled && a.cfg.APIKey != "" }

func (a *Trendsmap) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	// Trendsmap is location-anchored; keyword-only and date-only
	// queries cannot be answered.
	if !q.HasLocation() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("api_key", a.cfg.APIKey)
	params.Set("lat", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(q.RadiusKM, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(limitFor(q)))
	if q.HasKeyword() {
		params.Set("q", q.Keyword)
	}

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"/trends/local?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Trends []model.RawRecord `json:"trends"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Trends, q), nil
}
