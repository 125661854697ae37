package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Twitter queries the v1.1 search API for geotagged tweets.
type Twitter struct {
	cfg config.TwitterConfig
	f   fetcher.Fetcher
}

// NewTwitter creates the Twitter adapter.
func NewTwitter(cfg config.TwitterConfig, f fetcher.Fetcher) *Twitter {
	return &Twitter{cfg: cfg, f: f}
}

func (a *Twitter) Name() model.Source { return model.SourceTwitter }

func (a *Twitter) Configured() bool { return a.cfg.Enabled && a.cfg.BearerToken != "" }

func (a *Twitter) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(min(limitFor(q), 100)))
	params.Set("tweet_mode", "extended")
	params.Set("include_entities", "true")
	params.Set("result_type", "recent")

	switch {
	case q.HasLocation():
		// The geocode operator takes lat,lon,radius.
		params.Set("geocode", fmt.Sprintf("%f,%f,%fkm", q.Center.Lat, q.Center.Lng, q.RadiusKM))
		params.Set("q", q.Keyword)
	case q.HasKeyword():
		params.Set("q", q.Keyword+" filter:geo")
	default:
		return nil, nil
	}

	if q.Start != nil {
		params.Set("since", q.Start.Format("2006-01-02"))
	}
	if q.End != nil {
		params.Set("until", q.End.Format("2006-01-02"))
	}

	body, err := a.f.Get(ctx, a.cfg.BaseURL+"/search/tweets.json?"+params.Encode(), http.Header{
		"Authorization": {"Bearer " + a.cfg.BearerToken},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Statuses []model.RawRecord `json:"statuses"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Statuses, q), nil
}
