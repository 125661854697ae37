package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// wikipediaMaxRadiusM is the GeoSearch API's hard radius cap.
const wikipediaMaxRadiusM = 10000

// Wikipedia queries the MediaWiki GeoSearch API for geotagged articles.
type Wikipedia struct {
	cfg config.WikipediaConfig
	f   fetcher.Fetcher
}

// NewWikipedia creates the Wikipedia adapter.
func NewWikipedia(cfg config.WikipediaConfig, f fetcher.Fetcher) *Wikipedia {
	return &Wikipedia{cfg: cfg, f: f}
}

func (w *Wikipedia) Name() model.Source { return model.SourceWikipedia }

func (w *Wikipedia) Configured() bool { return w.cfg.Enabled }

func (w *Wikipedia) baseURL() string {
	if w.cfg.BaseURL != "" {
		return w.cfg.BaseURL
	}
	lang := w.cfg.Language
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
}

func (w *Wikipedia) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	switch {
	case q.HasLocation():
		return w.geoSearch(ctx, q)
	case q.HasKeyword():
		return w.keywordSearch(ctx, q)
	default:
		return nil, nil
	}
}

func (w *Wikipedia) geoSearch(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	radiusM := int(q.RadiusKM * 1000)
	if radiusM > wikipediaMaxRadiusM {
		radiusM = wikipediaMaxRadiusM
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "geosearch")
	params.Set("gscoord", fmt.Sprintf("%f|%f", q.Center.Lat, q.Center.Lng))
	params.Set("gsradius", strconv.Itoa(radiusM))
	params.Set("gslimit", strconv.Itoa(limitFor(q)))
	params.Set("format", "json")

	body, err := w.f.Download(ctx, w.baseURL()+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Query struct {
			GeoSearch []model.RawRecord `json:"geosearch"`
		} `json:"query"`
	}](body)
	if err != nil {
		return nil, err
	}

	return resp.Query.GeoSearch, nil
}

// keywordSearch uses a search generator with the coordinates prop so
// keyword hits come back with their geotags attached.
func (w *Wikipedia) keywordSearch(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrsearch", q.Keyword)
	params.Set("gsrlimit", strconv.Itoa(limitFor(q)))
	params.Set("prop", "coordinates|info")
	params.Set("inprop", "url")
	params.Set("format", "json")

	body, err := w.f.Download(ctx, w.baseURL()+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Query struct {
			Pages map[string]model.RawRecord `json:"pages"`
		} `json:"query"`
	}](body)
	if err != nil {
		return nil, err
	}

	records := make([]model.RawRecord, 0, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		records = append(records, page)
	}
	return records, nil
}
