package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Source identifies the platform a record was collected from.
type Source string

const (
	SourceTwitter       Source = "twitter"
	SourceYouTube       Source = "youtube"
	SourceFlickr        Source = "flickr"
	SourceVK            Source = "vk"
	SourceInstagram     Source = "instagram"
	SourceTrendsmap     Source = "trendsmap"
	SourcePastvu        Source = "pastvu"
	SourceWikipedia     Source = "wikipedia"
	SourcePaintedPlanet Source = "painted_planet"
)

// AllSources lists every known source in canonical order.
var AllSources = []Source{
	SourceTwitter,
	SourceYouTube,
	SourceFlickr,
	SourceVK,
	SourceInstagram,
	SourceTrendsmap,
	SourcePastvu,
	SourceWikipedia,
	SourcePaintedPlanet,
}

// ParseSource converts a string into a Source.
func ParseSource(s string) (Source, error) {
	for _, src := range AllSources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", eris.Errorf("model: unknown source %q", s)
}

// RawRecord is one record in an adapter's native response shape.
// Keys and nesting differ per platform; the normalizer maps them.
type RawRecord map[string]any

// GeoRecord is the canonical normalized geolocation observation.
// Latitude and Longitude are always present and within valid range;
// everything else is optional.
type GeoRecord struct {
	Source    Source     `json:"source"`
	ID        string     `json:"id"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Title     string     `json:"title,omitempty"`
	Caption   string     `json:"caption,omitempty"`
	URL       string     `json:"url,omitempty"`

	// DistanceKM is the distance from the query center, filled by the
	// radius post-filter when the query has a center.
	DistanceKM float64 `json:"distance_km,omitempty"`

	// Raw retains source-specific fields for passthrough export.
	Raw RawRecord `json:"raw,omitempty"`
}

// Key returns the within-source identity used for deterministic dedup.
func (r *GeoRecord) Key() string {
	return string(r.Source) + "\x00" + r.ID
}

// Richness scores how much metadata a record carries. The merge engine
// keeps the richer of two records judged to be the same observation.
func (r *GeoRecord) Richness() int {
	score := 0
	if r.URL != "" {
		score += 2
	}
	if r.Title != "" {
		score += 2
	}
	if r.Timestamp != nil {
		score++
	}
	if r.Caption != "" {
		score++
	}
	return score
}

// MarshalRaw serializes the Raw payload for storage. A nil Raw becomes
// JSON null.
func (r *GeoRecord) MarshalRaw() ([]byte, error) {
	data, err := json.Marshal(r.Raw)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal raw payload")
	}
	return data, nil
}

// SourceRecords pairs a source with its normalized records, preserving
// the per-source order handed to the merge engine.
type SourceRecords struct {
	Source  Source      `json:"source"`
	Records []GeoRecord `json:"records"`
}
