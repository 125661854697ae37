package source

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Pastvu queries the historical-photo archive's nearest-photos method.
// The API takes its parameters as a JSON blob in the query string.
type Pastvu struct {
	cfg config.KeylessSource
	f   fetcher.Fetcher
}

// NewPastvu creates the Pastvu adapter.
func NewPastvu(cfg config.KeylessSource, f fetcher.Fetcher) *Pastvu {
	return &Pastvu{cfg: cfg, f: f}
}

func (a *Pastvu) Name() model.Source { return model.SourcePastvu }

func (a *Pastvu) Configured() bool { return a.cfg.Enabled }

func (a *Pastvu) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	// The archive is geo-indexed only.
	if !q.HasLocation() {
		return nil, nil
	}

	blob, err := json.Marshal(map[string]any{
		"geo":    []float64{q.Center.Lat, q.Center.Lng},
		"limit":  limitFor(q),
		"except": 0,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pastvu: marshal params")
	}

	params := url.Values{}
	params.Set("method", "photo.giveNearestPhotos")
	params.Set("params", string(blob))

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Result struct {
			Photos []model.RawRecord `json:"photos"`
		} `json:"result"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Result.Photos, q), nil
}
