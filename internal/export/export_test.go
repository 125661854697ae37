package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

func sampleRecords() []model.GeoRecord {
	when := time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
	return []model.GeoRecord{
		{
			Source:    model.SourceFlickr,
			ID:        "53001",
			Latitude:  59.9343,
			Longitude: 30.3351,
			Timestamp: &when,
			Title:     "old town",
			URL:       "https://www.flickr.com/photos/u/53001",
			Raw:       model.RawRecord{"secret_internal": "should not leak"},
		},
		{
			Source:    model.SourceWikipedia,
			ID:        "5061090",
			Latitude:  48.8584,
			Longitude: 2.2945,
			Title:     "Eiffel Tower",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{
		"flickr", "53001", "59.9343", "30.3351",
		"2025-08-27T12:00:00Z", "old town", "https://www.flickr.com/photos/u/53001",
	}, rows[1])
	// Missing optional fields render empty, not "null".
	assert.Equal(t, "", rows[2][4])
	assert.NotContains(t, buf.String(), "secret_internal")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecords()))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "flickr", out[0]["source"])
	assert.Equal(t, "2025-08-27T12:00:00Z", out[0]["timestamp"])
	assert.NotContains(t, out[1], "timestamp")
	assert.NotContains(t, buf.String(), "secret_internal")
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, sampleRecords()))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	// Longitude first.
	assert.InDelta(t, 30.3351, fc.Features[0].Geometry.Coordinates[0], 1e-9)
	assert.InDelta(t, 59.9343, fc.Features[0].Geometry.Coordinates[1], 1e-9)
	assert.Equal(t, "flickr", fc.Features[0].Properties["source"])
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.shp")
	require.NoError(t, WriteShapefile(path, sampleRecords()))
	assert.FileExists(t, path)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// Cyrillic runes are two bytes; cutting mid-rune would emit
	// invalid UTF-8 into DBF attributes.
	s := "Невский проспект"
	got := truncate(s, 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Не", got)

	assert.Equal(t, "abc", truncate("abc", 16))
	assert.Equal(t, "ab", truncate("abcd", 2))
}
