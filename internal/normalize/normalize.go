package normalize

import (
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// ErrInvalidRecord marks a raw record that cannot be normalized, most
// often because its coordinates are missing, non-numeric, or out of
// range. Callers skip and count these rather than failing the query.
var ErrInvalidRecord = eris.New("normalize: invalid record")

// Normalizer turns per-source raw records into canonical GeoRecords.
type Normalizer struct {
	mappings *Mappings
}

// New creates a Normalizer with the given mapping tables.
func New(mappings *Mappings) *Normalizer {
	return &Normalizer{mappings: mappings}
}

// Normalize maps one raw record into a GeoRecord. It is a pure
// function: no I/O, no mutation of the input.
func (n *Normalizer) Normalize(src model.Source, raw model.RawRecord) (model.GeoRecord, error) {
	mapping, ok := n.mappings.Lookup(src)
	if !ok {
		return model.GeoRecord{}, eris.Wrapf(ErrInvalidRecord, "no mapping for source %q", src)
	}

	lat, lng, ok := extractCoords(mapping.Coords, raw)
	if !ok {
		return model.GeoRecord{}, eris.Wrap(ErrInvalidRecord, "missing coordinates")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.GeoRecord{}, eris.Wrapf(ErrInvalidRecord, "coordinates out of range (%f, %f)", lat, lng)
	}

	rec := model.GeoRecord{
		Source:    src,
		Latitude:  lat,
		Longitude: lng,
		Raw:       raw,
	}

	rec.ID = firstString(raw, mapping.IDPaths)
	if rec.ID == "" {
		rec.ID = syntheticID(lat, lng, raw)
	}

	if mapping.TitleTemplate != "" {
		if title, ok := expandTemplate(mapping.TitleTemplate, raw); ok {
			rec.Title = title
		}
	}
	if rec.Title == "" {
		rec.Title = firstString(raw, mapping.TitlePaths)
	}

	rec.Caption = firstString(raw, mapping.CaptionPaths)

	rec.URL = firstString(raw, mapping.URLPaths)
	if rec.URL == "" && mapping.URLTemplate != "" {
		if u, ok := expandTemplate(mapping.URLTemplate, raw); ok {
			rec.URL = u
		}
	}

	if ts, ok := extractTime(mapping, raw); ok {
		rec.Timestamp = &ts
	}

	return rec, nil
}

// NormalizeAll normalizes a source's raw batch, dropping invalid
// records and collapsing repeated (source, id) pairs. The returned
// stats count what was dropped.
func (n *Normalizer) NormalizeAll(src model.Source, raws []model.RawRecord) ([]model.GeoRecord, model.SourceStats) {
	stats := model.SourceStats{Fetched: len(raws)}
	seen := make(map[string]struct{}, len(raws))
	records := make([]model.GeoRecord, 0, len(raws))

	for _, raw := range raws {
		rec, err := n.Normalize(src, raw)
		if err != nil {
			stats.Rejected++
			zap.L().Debug("record rejected",
				zap.String("source", string(src)),
				zap.Error(err))
			continue
		}
		if _, dup := seen[rec.Key()]; dup {
			stats.Duplicates++
			continue
		}
		seen[rec.Key()] = struct{}{}
		records = append(records, rec)
	}

	return records, stats
}

func firstString(raw model.RawRecord, paths []string) string {
	for _, path := range paths {
		if v, ok := digString(raw, path); ok {
			return v
		}
	}
	return ""
}

func extractTime(mapping Mapping, raw model.RawRecord) (time.Time, bool) {
	for _, path := range mapping.TimePaths {
		v, ok := dig(raw, path)
		if !ok || v == nil {
			continue
		}
		for _, layout := range mapping.TimeLayouts {
			if ts, ok := parseTime(layout, v); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func parseTime(layout string, v any) (time.Time, bool) {
	switch layout {
	case "unix":
		sec, ok := toFloat(v)
		if !ok || sec <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(sec), 0).UTC(), true
	case "year":
		year, ok := toFloat(v)
		if !ok || year < 1 {
			return time.Time{}, false
		}
		return time.Date(int(year), time.January, 1, 0, 0, 0, 0, time.UTC), true
	default:
		s, isStr := v.(string)
		if !isStr || s == "" {
			return time.Time{}, false
		}
		ts, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
}

// syntheticID derives a stable identifier for sources that do not
// expose one, so within-source dedup still has a key to collapse on.
func syntheticID(lat, lng float64, raw model.RawRecord) string {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatFloat(lat, 'f', 6, 64))) //nolint:errcheck
	h.Write([]byte(strconv.FormatFloat(lng, 'f', 6, 64))) //nolint:errcheck
	for _, key := range []string{"title", "name", "text"} {
		if v, ok := raw[key].(string); ok {
			h.Write([]byte(strings.ToLower(v))) //nolint:errcheck
		}
	}
	return "x" + strconv.FormatUint(h.Sum64(), 16)
}
