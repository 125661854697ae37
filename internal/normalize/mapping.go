package normalize

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// CoordKind selects how a coordinate rule reads lat/lng out of a raw
// record.
type CoordKind string

const (
	// CoordFields reads latitude and longitude from two separate paths.
	CoordFields CoordKind = "fields"
	// CoordPair reads both from a two-element array at one path.
	CoordPair CoordKind = "pair"
	// CoordBBox reads a GeoJSON-style bounding-box ring and takes its
	// centroid.
	CoordBBox CoordKind = "bbox"
)

// CoordRule is one way to extract coordinates from a raw record.
// Rules are tried in order; the first that yields a valid pair wins.
type CoordRule struct {
	Kind CoordKind `yaml:"kind"`

	// LatPath/LonPath apply to CoordFields.
	LatPath string `yaml:"lat_path,omitempty"`
	LonPath string `yaml:"lon_path,omitempty"`

	// Path applies to CoordPair and CoordBBox.
	Path string `yaml:"path,omitempty"`

	// LonFirst flips the element order for CoordPair and CoordBBox
	// (GeoJSON puts longitude first).
	LonFirst bool `yaml:"lon_first,omitempty"`
}

// Mapping declares how one source's raw records map onto GeoRecord.
// Paths are dot-separated and may index into arrays by number, e.g.
// "place.bounding_box.coordinates.0".
type Mapping struct {
	Coords []CoordRule `yaml:"coords"`

	IDPaths []string `yaml:"id_paths"`

	TitlePaths []string `yaml:"title_paths,omitempty"`
	// TitleTemplate, when set, takes precedence over TitlePaths.
	// Placeholders are path references wrapped in braces: "@{user.screen_name}".
	TitleTemplate string `yaml:"title_template,omitempty"`

	CaptionPaths []string `yaml:"caption_paths,omitempty"`

	URLPaths []string `yaml:"url_paths,omitempty"`
	// URLTemplate is used when none of URLPaths yield a value.
	URLTemplate string `yaml:"url_template,omitempty"`

	TimePaths []string `yaml:"time_paths,omitempty"`
	// TimeLayouts are tried in order against the extracted time value.
	// Besides Go reference layouts, "unix" accepts epoch seconds and
	// "year" accepts a bare year number.
	TimeLayouts []string `yaml:"time_layouts,omitempty"`
}

// defaultMappings covers every built-in source. The tables mirror each
// platform's documented response shape.
var defaultMappings = map[model.Source]Mapping{
	model.SourceTwitter: {
		Coords: []CoordRule{
			// geo.coordinates is [lat, lng]; the place bounding box is
			// a GeoJSON ring with longitude first.
			{Kind: CoordPair, Path: "geo.coordinates"},
			{Kind: CoordBBox, Path: "place.bounding_box.coordinates.0", LonFirst: true},
		},
		IDPaths:       []string{"id_str"},
		TitleTemplate: "@{user.screen_name}",
		CaptionPaths:  []string{"full_text", "text"},
		URLTemplate:   "https://twitter.com/{user.screen_name}/status/{id_str}",
		TimePaths:     []string{"created_at"},
		TimeLayouts:   []string{"Mon Jan 02 15:04:05 -0700 2006"},
	},
	model.SourceYouTube: {
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "recordingDetails.location.latitude", LonPath: "recordingDetails.location.longitude"},
		},
		IDPaths:      []string{"id"},
		TitlePaths:   []string{"snippet.title"},
		CaptionPaths: []string{"snippet.description"},
		URLTemplate:  "https://www.youtube.com/watch?v={id}",
		TimePaths:    []string{"snippet.publishedAt"},
		TimeLayouts:  []string{"2006-01-02T15:04:05Z07:00"},
	},
	model.SourceFlickr: {
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "latitude", LonPath: "longitude"},
		},
		IDPaths:      []string{"id"},
		TitlePaths:   []string{"title"},
		CaptionPaths: []string{"description._content"},
		URLPaths:     []string{"url_m"},
		URLTemplate:  "https://www.flickr.com/photos/{owner}/{id}",
		TimePaths:    []string{"datetaken", "date_taken"},
		TimeLayouts:  []string{"2006-01-02 15:04:05"},
	},
	model.SourceVK: {
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "lat", LonPath: "long"},
		},
		IDPaths:      []string{"id"},
		CaptionPaths: []string{"text"},
		URLTemplate:  "https://vk.com/photo{owner_id}_{id}",
		TimePaths:    []string{"date"},
		TimeLayouts:  []string{"unix"},
	},
	model.SourceInstagram: {
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "lat", LonPath: "lng"},
			{Kind: CoordFields, LatPath: "location.latitude", LonPath: "location.longitude"},
		},
		IDPaths:      []string{"id"},
		CaptionPaths: []string{"caption"},
		URLPaths:     []string{"link", "permalink"},
		TimePaths:    []string{"taken_at", "created_time"},
		TimeLayouts:  []string{"unix"},
	},
	model.SourceTrendsmap: {
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "lat", LonPath: "lon"},
		},
		IDPaths:    []string{"id", "name"},
		TitlePaths: []string{"name"},
		URLPaths:   []string{"url"},
		TimePaths:  []string{"updated_at"},
		TimeLayouts: []string{
			"2006-01-02T15:04:05Z07:00",
			"unix",
		},
	},
	model.SourcePastvu: {
		Coords: []CoordRule{
			// geo is [lat, lng].
			{Kind: CoordPair, Path: "geo"},
		},
		IDPaths:     []string{"cid"},
		TitlePaths:  []string{"title"},
		URLTemplate: "https://pastvu.com/p/{cid}",
		TimePaths:   []string{"year"},
		TimeLayouts: []string{"year"},
	},
	model.SourceWikipedia: {
		// Geosearch hits carry the geotag at the top level; pages from
		// prop=coordinates nest it under a coordinates array.
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "lat", LonPath: "lon"},
			{Kind: CoordFields, LatPath: "coordinates.0.lat", LonPath: "coordinates.0.lon"},
		},
		IDPaths:      []string{"pageid"},
		TitlePaths:   []string{"title"},
		CaptionPaths: []string{"extract", "snippet"},
		URLPaths:     []string{"fullurl"},
		URLTemplate:  "https://en.wikipedia.org/?curid={pageid}",
	},
	model.SourcePaintedPlanet: {
		Coords: []CoordRule{
			{Kind: CoordFields, LatPath: "lat", LonPath: "lng"},
		},
		IDPaths:      []string{"id"},
		TitlePaths:   []string{"title", "name"},
		CaptionPaths: []string{"description"},
		URLPaths:     []string{"url"},
		TimePaths:    []string{"created_at"},
		TimeLayouts:  []string{"2006-01-02T15:04:05Z07:00", "2006-01-02"},
	},
}

// Mappings holds the active per-source mapping tables.
type Mappings struct {
	tables map[model.Source]Mapping
}

// DefaultMappings returns the built-in tables.
func DefaultMappings() *Mappings {
	tables := make(map[model.Source]Mapping, len(defaultMappings))
	for src, m := range defaultMappings {
		tables[src] = m
	}
	return &Mappings{tables: tables}
}

// LoadOverrides merges a YAML override file into the tables. Only the
// fields present in the file replace their built-in counterparts, so an
// override can retarget a single path without restating the whole
// mapping.
func (m *Mappings) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "normalize: read mapping overrides %s", path)
	}

	var overrides map[string]Mapping
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return eris.Wrapf(err, "normalize: parse mapping overrides %s", path)
	}

	for name, over := range overrides {
		src, err := model.ParseSource(name)
		if err != nil {
			return err
		}
		m.tables[src] = mergeMapping(m.tables[src], over)
	}
	return nil
}

// Lookup returns the mapping for a source.
func (m *Mappings) Lookup(src model.Source) (Mapping, bool) {
	table, ok := m.tables[src]
	return table, ok
}

func mergeMapping(base, over Mapping) Mapping {
	if len(over.Coords) > 0 {
		base.Coords = over.Coords
	}
	if len(over.IDPaths) > 0 {
		base.IDPaths = over.IDPaths
	}
	if len(over.TitlePaths) > 0 {
		base.TitlePaths = over.TitlePaths
	}
	if over.TitleTemplate != "" {
		base.TitleTemplate = over.TitleTemplate
	}
	if len(over.CaptionPaths) > 0 {
		base.CaptionPaths = over.CaptionPaths
	}
	if len(over.URLPaths) > 0 {
		base.URLPaths = over.URLPaths
	}
	if over.URLTemplate != "" {
		base.URLTemplate = over.URLTemplate
	}
	if len(over.TimePaths) > 0 {
		base.TimePaths = over.TimePaths
	}
	if len(over.TimeLayouts) > 0 {
		base.TimeLayouts = over.TimeLayouts
	}
	return base
}

// dig walks a dot-separated path through nested maps and arrays.
// Numeric segments index into arrays.
func dig(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case model.RawRecord:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// digFloat digs a path and coerces the value to float64. API responses
// deliver numbers as JSON numbers or as strings depending on the
// platform.
func digFloat(raw map[string]any, path string) (float64, bool) {
	v, ok := dig(raw, path)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// digString digs a path and renders the value as a string. Numeric IDs
// are formatted without an exponent.
func digString(raw map[string]any, path string) (string, bool) {
	v, ok := dig(raw, path)
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// expandTemplate substitutes {path} placeholders with values dug out of
// the raw record. A missing placeholder voids the whole template.
func expandTemplate(tmpl string, raw map[string]any) (string, bool) {
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		b.WriteString(rest[:open])
		path := rest[open+1 : open+end]
		val, ok := digString(raw, path)
		if !ok {
			return "", false
		}
		b.WriteString(val)
		rest = rest[open+end+1:]
	}
}

// extractCoords applies a rule list and returns the first valid pair.
func extractCoords(rules []CoordRule, raw map[string]any) (lat, lng float64, ok bool) {
	for _, rule := range rules {
		switch rule.Kind {
		case CoordFields:
			la, ok1 := digFloat(raw, rule.LatPath)
			lo, ok2 := digFloat(raw, rule.LonPath)
			if ok1 && ok2 {
				return la, lo, true
			}
		case CoordPair:
			v, found := dig(raw, rule.Path)
			if !found {
				continue
			}
			pair, isArr := v.([]any)
			if !isArr || len(pair) < 2 {
				continue
			}
			a, ok1 := toFloat(pair[0])
			b, ok2 := toFloat(pair[1])
			if !ok1 || !ok2 {
				continue
			}
			if rule.LonFirst {
				return b, a, true
			}
			return a, b, true
		case CoordBBox:
			v, found := dig(raw, rule.Path)
			if !found {
				continue
			}
			ring, isArr := v.([]any)
			if !isArr || len(ring) == 0 {
				continue
			}
			var latSum, lngSum float64
			count := 0
			for _, corner := range ring {
				pair, isPair := corner.([]any)
				if !isPair || len(pair) < 2 {
					continue
				}
				a, ok1 := toFloat(pair[0])
				b, ok2 := toFloat(pair[1])
				if !ok1 || !ok2 {
					continue
				}
				if rule.LonFirst {
					a, b = b, a
				}
				latSum += a
				lngSum += b
				count++
			}
			if count > 0 {
				return latSum / float64(count), lngSum / float64(count), true
			}
		}
	}
	return 0, 0, false
}
