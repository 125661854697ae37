package merge

import (
	"math"
	"time"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// metersPerDegreeLat is constant everywhere on the sphere, which makes
// latitude bands a safe bucketing key at any longitude.
const metersPerDegreeLat = 111320.0

// Options control the duplicate heuristic. Two records from different
// sources are judged the same observation when they sit within
// DistanceMeters of each other, their timestamps fall within
// TimeWindow, and (when the text check is enabled and both carry text)
// their title/caption similarity clears TextSimilarity.
type Options struct {
	DistanceMeters  float64
	TimeWindow      time.Duration
	TextSimilarity  float64
	TextCheckEnable bool
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		DistanceMeters: 10,
		TimeWindow:     time.Hour,
		TextSimilarity: 0.90,
	}
}

// Engine combines per-source record batches into one deduplicated
// sequence. It is stateless across calls and safe to reuse.
type Engine struct {
	opts Options
}

// New creates a merge engine.
func New(opts Options) *Engine {
	if opts.DistanceMeters <= 0 {
		opts.DistanceMeters = DefaultOptions().DistanceMeters
	}
	if opts.TimeWindow <= 0 {
		opts.TimeWindow = DefaultOptions().TimeWindow
	}
	return &Engine{opts: opts}
}

// Merge concatenates the batches in the order given, preserving each
// batch's internal order, and collapses cross-source duplicates. When
// two records match, the one with richer metadata survives, in the
// earlier record's position. The second return value counts dropped
// duplicates.
//
// Within-source (source, id) repeats are assumed already collapsed by
// the normalizer; records from the same source are never merged here.
func (e *Engine) Merge(batches []model.SourceRecords) ([]model.GeoRecord, int) {
	total := 0
	for _, b := range batches {
		total += len(b.Records)
	}

	out := make([]model.GeoRecord, 0, total)
	// Latitude-band index over out. A record within DistanceMeters of
	// another is always in the same or an adjacent band.
	bands := make(map[int][]int)
	bandDeg := e.opts.DistanceMeters / metersPerDegreeLat
	dropped := 0

	for _, batch := range batches {
		for _, rec := range batch.Records {
			band := int(math.Floor(rec.Latitude / bandDeg))

			matched := false
			for b := band - 1; b <= band+1; b++ {
				for _, idx := range bands[b] {
					if !e.isDuplicate(&out[idx], &rec) {
						continue
					}
					// Keep the richer record in the first-seen slot.
					if rec.Richness() > out[idx].Richness() {
						out[idx] = rec
						newBand := int(math.Floor(rec.Latitude / bandDeg))
						if newBand != b {
							bands[newBand] = append(bands[newBand], idx)
						}
					}
					dropped++
					matched = true
					break
				}
				if matched {
					break
				}
			}
			if matched {
				continue
			}

			out = append(out, rec)
			bands[band] = append(bands[band], len(out)-1)
		}
	}

	return out, dropped
}

func (e *Engine) isDuplicate(existing, candidate *model.GeoRecord) bool {
	if existing.Source == candidate.Source {
		return false
	}
	meters := model.DistanceKM(existing.Latitude, existing.Longitude, candidate.Latitude, candidate.Longitude) * 1000
	if meters > e.opts.DistanceMeters {
		return false
	}

	// A record without a timestamp cannot be confirmed as the same
	// observation; ambiguity retains both.
	if existing.Timestamp == nil || candidate.Timestamp == nil {
		return false
	}
	delta := existing.Timestamp.Sub(*candidate.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	if delta > e.opts.TimeWindow {
		return false
	}

	if e.opts.TextCheckEnable {
		a := recordText(existing)
		b := recordText(candidate)
		if a != "" && b != "" && textSimilarity(a, b) < e.opts.TextSimilarity {
			return false
		}
	}

	return true
}

func recordText(r *model.GeoRecord) string {
	if r.Title != "" {
		return r.Title
	}
	return r.Caption
}
