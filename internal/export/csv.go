package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// WriteCSV renders records as flat rows under the Columns header. The
// raw payload is deliberately not exported; it does not flatten.
func WriteCSV(w io.Writer, records []model.GeoRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for i := range records {
		rec := &records[i]
		row := []string{
			string(rec.Source),
			rec.ID,
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
			formatTimestamp(rec.Timestamp),
			rec.Title,
			rec.URL,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
