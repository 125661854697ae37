package source

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Instagram queries geotagged media through the Huntel aggregation API,
// since Instagram retired its public location endpoints.
type Instagram struct {
	cfg config.KeyedSource
	f   fetcher.Fetcher
}

// NewInstagram creates the Instagram-via-Huntel adapter.
func NewInstagram(cfg config.KeyedSource, f fetcher.Fetcher) *Instagram {
	return &Instagram{cfg: cfg, f: f}
}

func (a *Instagram) Name() model.Source { return model.SourceInstagram }

func (a *Instagram) Configured() bool { return a.cfg.Enabled && a.cfg.APIKey != "" }

func (a *Instagram) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limitFor(q)))

	switch {
	case q.HasLocation():
		params.Set("lat", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
		params.Set("lng", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))
		params.Set("distance", strconv.Itoa(int(q.RadiusKM*1000)))
	case q.HasKeyword():
		params.Set("tag", q.Keyword)
	default:
		return nil, nil
	}

	if q.Start != nil {
		params.Set("min_timestamp", strconv.FormatInt(q.Start.Unix(), 10))
	}
	if q.End != nil {
		params.Set("max_timestamp", strconv.FormatInt(q.End.Unix(), 10))
	}

	body, err := a.f.Get(ctx, a.cfg.BaseURL+"/instagram/media/search?"+params.Encode(), http.Header{
		"X-Api-Key": {a.cfg.APIKey},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Data []model.RawRecord `json:"data"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Data, q), nil
}
