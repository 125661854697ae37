package source

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// PaintedPlanet queries the community art-mapping project's open marker API.
type PaintedPlanet struct {
	cfg config.KeylessSource
	f   fetcher.Fetcher
}

// NewPaintedPlanet creates the Painted Planet adapter.
func NewPaintedPlanet(cfg config.KeylessSource, f fetcher.Fetcher) *PaintedPlanet {
	return &PaintedPlanet{cfg: cfg, f: f}
}

func (a *PaintedPlanet) Name() model.Source { return model.SourcePaintedPlanet }

func (a *PaintedPlanet) Configured() bool { return a.cfg.Enabled }

func (a *PaintedPlanet) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limitFor(q)))

	switch {
	case q.HasLocation():
		params.Set("lat", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
		params.Set("lng", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))
		params.Set("radius_km", strconv.FormatFloat(q.RadiusKM, 'f', -1, 64))
	case q.HasKeyword():
		params.Set("q", q.Keyword)
	default:
		return nil, nil
	}

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"/markers?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Markers []model.RawRecord `json:"markers"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Markers, q), nil
}
