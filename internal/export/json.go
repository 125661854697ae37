package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// jsonRecord mirrors the CSV column contract as an object.
type jsonRecord struct {
	Source    string  `json:"source"`
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp,omitempty"`
	Title     string  `json:"title,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// WriteJSON renders records as a JSON array of flat objects.
func WriteJSON(w io.Writer, records []model.GeoRecord) error {
	out := make([]jsonRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		out = append(out, jsonRecord{
			Source:    string(rec.Source),
			ID:        rec.ID,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Timestamp: formatTimestamp(rec.Timestamp),
			Title:     rec.Title,
			URL:       rec.URL,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(out), "export: encode json")
}
