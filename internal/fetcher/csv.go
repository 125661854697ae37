package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// StreamCSV reads a record dump row by row. The first row is treated as
// a header and skipped when skipHeader is set. Fields are trimmed;
// exported record files come back whitespace-padded from some
// spreadsheet round-trips. Both channels close when the input is
// exhausted.
func StreamCSV(ctx context.Context, r io.Reader, skipHeader bool) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1

		for {
			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv read")
				return
			}

			if skipHeader {
				skipHeader = false
				continue
			}

			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}

			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv stream cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
