package source

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// flickrMaxPerPage is the photos.search API page cap.
const flickrMaxPerPage = 500

// Flickr queries flickr.photos.search for geotagged photos.
type Flickr struct {
	cfg config.KeyedSource
	f   fetcher.Fetcher
}

// NewFlickr creates the Flickr adapter.
func NewFlickr(cfg config.KeyedSource, f fetcher.Fetcher) *Flickr {
	return &Flickr{cfg: cfg, f: f}
}

func (a *Flickr) Name() model.Source { return model.SourceFlickr }

func (a *Flickr) Configured() bool { return a.cfg.Enabled && a.cfg.APIKey != "" }

func (a *Flickr) Search(ctx context.Context, q *model.QuerySpec) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("method", "flickr.photos.search")
	params.Set("api_key", a.cfg.APIKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("has_geo", "1")
	params.Set("extras", "geo,url_m,date_taken,description,owner_name,tags")

	perPage := limitFor(q)
	if perPage > flickrMaxPerPage {
		perPage = flickrMaxPerPage
	}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", "1")

	switch {
	case q.HasLocation():
		params.Set("lat", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))
		params.Set("radius", strconv.FormatFloat(q.RadiusKM, 'f', -1, 64))
		params.Set("radius_units", "km")
		params.Set("sort", "date-taken-desc")
		if q.HasKeyword() {
			params.Set("text", q.Keyword)
		}
	case q.HasKeyword():
		params.Set("text", q.Keyword)
		params.Set("sort", "relevance")
	default:
		// Date-range-only queries are not answerable against the whole
		// photo stream; Flickr contributes nothing.
		return nil, nil
	}

	if q.Start != nil {
		params.Set("min_upload_date", strconv.FormatInt(q.Start.Unix(), 10))
	}
	if q.End != nil {
		params.Set("max_upload_date", strconv.FormatInt(q.End.Unix(), 10))
	}

	body, err := a.f.Download(ctx, a.cfg.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[struct {
		Photos struct {
			Photo []model.RawRecord `json:"photo"`
		} `json:"photos"`
	}](body)
	if err != nil {
		return nil, err
	}

	return capRecords(resp.Photos.Photo, q), nil
}
