package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is within range.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// QuerySpec describes one search request. It is built once per
// invocation and shared read-only by every adapter.
type QuerySpec struct {
	Center   *LatLng `json:"center,omitempty"`
	RadiusKM float64 `json:"radius_km,omitempty"`

	Keyword string `json:"keyword,omitempty"`

	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	Sources    []Source `json:"sources"`
	MaxResults int      `json:"max_results,omitempty"`
}

// HasLocation reports whether the query carries a coordinate+radius clause.
func (q *QuerySpec) HasLocation() bool { return q.Center != nil }

// HasKeyword reports whether the query carries a keyword clause.
func (q *QuerySpec) HasKeyword() bool { return q.Keyword != "" }

// HasDateRange reports whether the query carries a date-range clause.
func (q *QuerySpec) HasDateRange() bool { return q.Start != nil || q.End != nil }

// Validate checks that the query is well-formed: at least one clause
// present, coordinates in range, radius positive when a center is given,
// start not after end. An empty Sources list is valid and means every
// configured source.
func (q *QuerySpec) Validate() error {
	if !q.HasLocation() && !q.HasKeyword() && !q.HasDateRange() {
		return eris.New("query: at least one of coordinates, keyword, or date range is required")
	}
	if q.Center != nil {
		if !q.Center.Valid() {
			return eris.Errorf("query: center out of range: %f,%f", q.Center.Lat, q.Center.Lng)
		}
		if q.RadiusKM <= 0 {
			return eris.New("query: radius must be positive when a center is given")
		}
	}
	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return eris.Errorf("query: start %s after end %s", q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	}
	return nil
}
