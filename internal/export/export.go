package export

import (
	"time"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Columns is the flat field contract shared by the CSV and JSON sinks.
var Columns = []string{"source", "id", "latitude", "longitude", "timestamp", "title", "url"}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// properties renders the non-geometry fields of a record for the
// GeoJSON and shapefile sinks.
func properties(rec *model.GeoRecord) map[string]any {
	props := map[string]any{
		"source": string(rec.Source),
		"id":     rec.ID,
	}
	if rec.Timestamp != nil {
		props["timestamp"] = formatTimestamp(rec.Timestamp)
	}
	if rec.Title != "" {
		props["title"] = rec.Title
	}
	if rec.Caption != "" {
		props["caption"] = rec.Caption
	}
	if rec.URL != "" {
		props["url"] = rec.URL
	}
	return props
}
