package normalize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

func TestNormalize_TwitterGeoPoint(t *testing.T) {
	n := New(DefaultMappings())

	raw := model.RawRecord{
		"id_str":     "1234567890",
		"text":       "sunset over the bridge",
		"created_at": "Wed Aug 27 18:04:05 +0000 2025",
		"geo": map[string]any{
			"coordinates": []any{55.7558, 37.6173},
		},
		"user": map[string]any{"screen_name": "observer"},
	}

	rec, err := n.Normalize(model.SourceTwitter, raw)
	require.NoError(t, err)
	assert.Equal(t, model.SourceTwitter, rec.Source)
	assert.Equal(t, "1234567890", rec.ID)
	assert.InDelta(t, 55.7558, rec.Latitude, 1e-9)
	assert.InDelta(t, 37.6173, rec.Longitude, 1e-9)
	assert.Equal(t, "@observer", rec.Title)
	assert.Equal(t, "sunset over the bridge", rec.Caption)
	assert.Equal(t, "https://twitter.com/observer/status/1234567890", rec.URL)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, 2025, rec.Timestamp.Year())
}

func TestNormalize_TwitterBoundingBoxCentroid(t *testing.T) {
	n := New(DefaultMappings())

	// GeoJSON ring, longitude first.
	raw := model.RawRecord{
		"id_str": "77",
		"place": map[string]any{
			"bounding_box": map[string]any{
				"coordinates": []any{
					[]any{
						[]any{2.0, 48.0},
						[]any{2.0, 49.0},
						[]any{3.0, 49.0},
						[]any{3.0, 48.0},
					},
				},
			},
		},
	}

	rec, err := n.Normalize(model.SourceTwitter, raw)
	require.NoError(t, err)
	assert.InDelta(t, 48.5, rec.Latitude, 1e-9)
	assert.InDelta(t, 2.5, rec.Longitude, 1e-9)
}

func TestNormalize_FlickrStringCoords(t *testing.T) {
	n := New(DefaultMappings())

	raw := model.RawRecord{
		"id":        "53001",
		"owner":     "12345@N00",
		"title":     "old town",
		"latitude":  "59.9343",
		"longitude": "30.3351",
		"datetaken": "2025-08-20 14:30:00",
		"description": map[string]any{
			"_content": "a walk through the old town",
		},
	}

	rec, err := n.Normalize(model.SourceFlickr, raw)
	require.NoError(t, err)
	assert.InDelta(t, 59.9343, rec.Latitude, 1e-9)
	assert.Equal(t, "https://www.flickr.com/photos/12345@N00/53001", rec.URL)
	assert.Equal(t, "a walk through the old town", rec.Caption)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, time.August, rec.Timestamp.Month())
}

func TestNormalize_VKUnixTimestamp(t *testing.T) {
	n := New(DefaultMappings())

	raw := model.RawRecord{
		"id":       float64(987),
		"owner_id": float64(-222),
		"lat":      44.5,
		"long":     34.1,
		"date":     float64(1756300000),
		"text":     "embankment",
	}

	rec, err := n.Normalize(model.SourceVK, raw)
	require.NoError(t, err)
	assert.Equal(t, "987", rec.ID)
	assert.Equal(t, "https://vk.com/photo-222_987", rec.URL)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, int64(1756300000), rec.Timestamp.Unix())
}

func TestNormalize_PastvuYearOnly(t *testing.T) {
	n := New(DefaultMappings())

	raw := model.RawRecord{
		"cid":   float64(441556),
		"title": "Nevsky Prospekt",
		"geo":   []any{59.93, 30.33},
		"year":  float64(1912),
	}

	rec, err := n.Normalize(model.SourcePastvu, raw)
	require.NoError(t, err)
	assert.Equal(t, "441556", rec.ID)
	assert.Equal(t, "https://pastvu.com/p/441556", rec.URL)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, 1912, rec.Timestamp.Year())
}

func TestNormalize_WikipediaKeywordPageCoordinates(t *testing.T) {
	n := New(DefaultMappings())

	// prop=coordinates pages nest the geotag in a coordinates array
	// instead of geosearch's top-level lat/lon.
	raw := model.RawRecord{
		"pageid": float64(4916),
		"title":  "Big Ben",
		"coordinates": []any{
			map[string]any{"lat": 51.5007, "lon": -0.1246},
		},
		"fullurl": "https://en.wikipedia.org/wiki/Big_Ben",
	}

	rec, err := n.Normalize(model.SourceWikipedia, raw)
	require.NoError(t, err)
	assert.Equal(t, "4916", rec.ID)
	assert.InDelta(t, 51.5007, rec.Latitude, 0.0001)
	assert.InDelta(t, -0.1246, rec.Longitude, 0.0001)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Big_Ben", rec.URL)
}

func TestNormalize_RejectsMissingCoordinates(t *testing.T) {
	n := New(DefaultMappings())

	_, err := n.Normalize(model.SourceFlickr, model.RawRecord{"id": "1", "title": "no geo"})
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestNormalize_RejectsOutOfRangeLatitude(t *testing.T) {
	n := New(DefaultMappings())

	_, err := n.Normalize(model.SourceFlickr, model.RawRecord{
		"id":        "1",
		"latitude":  "95.0",
		"longitude": "30.0",
	})
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestNormalize_RejectsNonNumericCoordinates(t *testing.T) {
	n := New(DefaultMappings())

	_, err := n.Normalize(model.SourceFlickr, model.RawRecord{
		"id":        "1",
		"latitude":  "north",
		"longitude": "west",
	})
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestNormalize_SyntheticIDIsStable(t *testing.T) {
	n := New(DefaultMappings())

	raw := model.RawRecord{
		"lat":  12.5,
		"lon":  45.0,
		"name": "local trend",
	}

	a, err := n.Normalize(model.SourceTrendsmap, raw)
	require.NoError(t, err)
	b, err := n.Normalize(model.SourceTrendsmap, raw)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, b.ID)
}

func TestNormalizeAll_CountsAndCollapses(t *testing.T) {
	n := New(DefaultMappings())

	raws := []model.RawRecord{
		{"id": "1", "latitude": "10.0", "longitude": "20.0"},
		{"id": "1", "latitude": "10.0", "longitude": "20.0"}, // repeat id
		{"id": "2", "latitude": "bad", "longitude": "20.0"},  // invalid
		{"id": "3", "latitude": "11.0", "longitude": "21.0"},
	}

	records, stats := n.NormalizeAll(model.SourceFlickr, raws)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "3", records[1].ID)
	assert.Equal(t, 4, stats.Fetched)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestMappings_LoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.yaml")
	override := `
flickr:
  title_paths: ["headline"]
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	m := DefaultMappings()
	require.NoError(t, m.LoadOverrides(path))

	rec, err := New(m).Normalize(model.SourceFlickr, model.RawRecord{
		"id":        "9",
		"headline":  "custom field",
		"latitude":  "1.0",
		"longitude": "2.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom field", rec.Title)

	// Untouched fields keep their defaults.
	table, ok := m.Lookup(model.SourceFlickr)
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, table.IDPaths)
}

func TestMappings_LoadOverrides_UnknownSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("myspace:\n  id_paths: [\"id\"]\n"), 0o644))

	err := DefaultMappings().LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
