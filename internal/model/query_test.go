package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerySpec_Validate_RequiresClause(t *testing.T) {
	q := &QuerySpec{Sources: []Source{SourceFlickr}}
	err := q.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one")
}

func TestQuerySpec_Validate_Coordinates(t *testing.T) {
	q := &QuerySpec{
		Center:   &LatLng{Lat: 48.85, Lng: 2.35},
		RadiusKM: 10,
		Sources:  []Source{SourceWikipedia},
	}
	require.NoError(t, q.Validate())
}

func TestQuerySpec_Validate_CenterOutOfRange(t *testing.T) {
	q := &QuerySpec{
		Center:   &LatLng{Lat: 95, Lng: 2.35},
		RadiusKM: 10,
		Sources:  []Source{SourceWikipedia},
	}
	require.Error(t, q.Validate())
}

func TestQuerySpec_Validate_ZeroRadius(t *testing.T) {
	q := &QuerySpec{
		Center:  &LatLng{Lat: 48.85, Lng: 2.35},
		Sources: []Source{SourceWikipedia},
	}
	require.Error(t, q.Validate())
}

func TestQuerySpec_Validate_DateOrder(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	q := &QuerySpec{
		Start:   &start,
		End:     &end,
		Sources: []Source{SourceTwitter},
	}
	require.Error(t, q.Validate())
}

func TestQuerySpec_Validate_EmptySourcesMeansAll(t *testing.T) {
	// No explicit source list defaults to every configured adapter
	// downstream, so it must pass validation.
	q := &QuerySpec{Keyword: "bridge"}
	require.NoError(t, q.Validate())
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("pastvu")
	require.NoError(t, err)
	assert.Equal(t, SourcePastvu, src)

	_, err = ParseSource("myspace")
	require.Error(t, err)
}

func TestGeoRecord_Richness(t *testing.T) {
	now := time.Now()
	full := GeoRecord{URL: "https://x", Title: "t", Caption: "c", Timestamp: &now}
	bare := GeoRecord{}
	assert.Greater(t, full.Richness(), bare.Richness())
}
