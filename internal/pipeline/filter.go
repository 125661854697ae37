package pipeline

import (
	"strings"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// applyFilters runs the query's post-fetch filters in place and returns
// the surviving records plus the number removed. Adapters already push
// these constraints into their requests where the platform supports it;
// the filters enforce them uniformly for platforms that do not.
func applyFilters(q *model.QuerySpec, records []model.GeoRecord) ([]model.GeoRecord, int) {
	before := len(records)

	if q.HasLocation() {
		records = filterByRadius(records, q.Center, q.RadiusKM)
	}
	if q.HasDateRange() {
		records = filterByDate(records, q)
	}
	if q.HasKeyword() {
		records = filterByKeyword(records, q.Keyword)
	}

	return records, before - len(records)
}

// filterByRadius keeps records within radiusKM of the center and
// annotates each survivor with its distance.
func filterByRadius(records []model.GeoRecord, center *model.LatLng, radiusKM float64) []model.GeoRecord {
	out := records[:0]
	for _, rec := range records {
		km := model.DistanceKM(center.Lat, center.Lng, rec.Latitude, rec.Longitude)
		if km > radiusKM {
			continue
		}
		rec.DistanceKM = km
		out = append(out, rec)
	}
	return out
}

// filterByDate keeps records whose timestamp falls inside the query
// range. Records without a timestamp cannot satisfy a date constraint
// and are dropped.
func filterByDate(records []model.GeoRecord, q *model.QuerySpec) []model.GeoRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.Timestamp == nil {
			continue
		}
		if q.Start != nil && rec.Timestamp.Before(*q.Start) {
			continue
		}
		if q.End != nil && rec.Timestamp.After(*q.End) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// filterByKeyword keeps records whose title or caption contains the
// keyword, case-insensitively.
func filterByKeyword(records []model.GeoRecord, keyword string) []model.GeoRecord {
	needle := strings.ToLower(keyword)
	out := records[:0]
	for _, rec := range records {
		text := strings.ToLower(rec.Title + " " + rec.Caption)
		if !strings.Contains(text, needle) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
