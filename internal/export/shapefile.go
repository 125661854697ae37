package export

import (
	"unicode/utf8"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// DBF string attributes cap at 254 bytes.
const dbfMaxString = 254

// WriteShapefile renders records as a POINT shapefile with flat
// attributes, for loading into GIS tools. Writing goes straight to
// disk; the path should name the .shp file.
func WriteShapefile(path string, records []model.GeoRecord) error {
	writer, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer writer.Close()

	fields := []shp.Field{
		shp.StringField("SOURCE", 16),
		shp.StringField("ID", 64),
		shp.StringField("TIMESTAMP", 25),
		shp.StringField("TITLE", 128),
		shp.StringField("URL", dbfMaxString),
	}
	writer.SetFields(fields)

	for i := range records {
		rec := &records[i]
		writer.Write(&shp.Point{X: rec.Longitude, Y: rec.Latitude})

		attrs := []string{
			truncate(string(rec.Source), 16),
			truncate(rec.ID, 64),
			formatTimestamp(rec.Timestamp),
			truncate(rec.Title, 128),
			truncate(rec.URL, dbfMaxString),
		}
		for col, val := range attrs {
			if err := writer.WriteAttribute(i, col, val); err != nil {
				return eris.Wrapf(err, "export: write shapefile attribute %d/%d", i, col)
			}
		}
	}

	return nil
}

// truncate cuts s to at most n bytes without splitting a rune, so DBF
// attributes stay valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
