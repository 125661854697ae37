package export

import (
	"io"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// WriteGeoJSON renders records as a FeatureCollection of points.
// GeoJSON orders coordinates longitude first.
func WriteGeoJSON(w io.Writer, records []model.GeoRecord) error {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(records)),
	}
	for i := range records {
		rec := &records[i]
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         rec.Key(),
			Geometry:   geom.NewPointFlat(geom.XY, []float64{rec.Longitude, rec.Latitude}),
			Properties: properties(rec),
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
