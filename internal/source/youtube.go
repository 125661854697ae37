package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// YouTube queries the Data API v3. Search results carry no coordinates,
// so a second videos.list call fetches recordingDetails for the hits.
type YouTube struct {
	cfg config.KeyedSource
	f   fetcher.Fetcher
}

// NewYouTube creates the YouTube adapter.
func NewYouTube(cfg config.KeyedSource, f fetcher.Fetcher) *YouTube {
	return &YouTube{cfg: cfg, f: f}
}

func (a *YouTube) Name() model.Source { return model.SourceYouTube }

func (a *YouTube) Configured() bool { return a.cfg.Enabled && a.cfg.APIKey != "" }

func (a *YouTube) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	ids, err := a.searchIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return a.videoDetails(ctx, ids, q)
}

func (a *YouTube) searchIDs(ctx context.Context, q *model.QuerySpec) ([]string, error) {
	params := url.Values{}
	params.Set("part", "id")
	params.Set("type", "video")
	params.Set("maxResults", "50") // API cap per page
	params.Set("key", a.cfg.APIKey)

	switch {
	case q.HasLocation():
		params.Set("location", fmt.Sprintf("%f,%f", q.Center.Lat, q.Center.Lng))
		params.Set("locationRadius", fmt.Sprintf("%.0fkm", q.RadiusKM))
		if q.HasKeyword() {
			params.Set("q", q.Keyword)
		}
	case q.HasKeyword():
		params.Set("q", q.Keyword)
	default:
		return nil, nil
	}

	if q.Start != nil {
		params.Set("publishedAfter", q.Start.UTC().Format(time.RFC3339))
	}
	if q.End != nil {
		params.Set("publishedBefore", q.End.UTC().Format(time.RFC3339))
	}

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}](body)
	if err != nil {
		return nil, err
	}

	limit := limitFor(q)
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		ids = append(ids, item.ID.VideoID)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

func (a *YouTube) videoDetails(ctx context.Context, ids []string, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("part", "snippet,recordingDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", a.cfg.APIKey)

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"/videos?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Items []model.RawRecord `json:"items"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Items, q), nil
}
