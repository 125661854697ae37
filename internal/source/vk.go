package source

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

const vkAPIVersion = "5.131"

// VK queries photos.search for geotagged photos.
type VK struct {
	cfg config.KeyedSource
	f   fetcher.Fetcher
}

// NewVK creates the VK adapter.
func NewVK(cfg config.KeyedSource, f fetcher.Fetcher) *VK {
	return &VK{cfg: cfg, f: f}
}

func (a *VK) Name() model.Source { return model.SourceVK }

func (a *VK) Configured() bool { return a.cfg.Enabled && a.cfg.APIKey != "" }

func (a *VK) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("access_token", a.cfg.APIKey)
	params.Set("v", vkAPIVersion)
	params.Set("count", strconv.Itoa(min(limitFor(q), 1000)))

	switch {
	case q.HasLocation():
		params.Set("lat", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
		params.Set("long", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))
		params.Set("radius", strconv.Itoa(int(q.RadiusKM*1000)))
		if q.HasKeyword() {
			params.Set("q", q.Keyword)
		}
	case q.HasKeyword():
		params.Set("q", q.Keyword)
	default:
		return nil, nil
	}

	if q.Start != nil {
		params.Set("start_time", strconv.FormatInt(q.Start.Unix(), 10))
	}
	if q.End != nil {
		params.Set("end_time", strconv.FormatInt(q.End.Unix(), 10))
	}

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"/photos.search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Response struct {
			Items []model.RawRecord `json:"items"`
		} `json:"response"`
		Error *struct {
			ErrorCode int    `json:"error_code"`
			ErrorMsg  string `json:"error_msg"`
		} `json:"error"`
	}](body)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, eris.Errorf("vk: api error %d: %s", resp.Error.ErrorCode, resp.Error.ErrorMsg)
	}

	return capRecords(resp.Response.Items, q), nil
}
