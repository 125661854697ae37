// Package ingest loads previously exported record files back into the
// store, so datasets collected elsewhere can be merged into local runs.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Result carries the parsed records plus bookkeeping about what was
// skipped.
type Result struct {
	Records  []model.GeoRecord
	Rejected int
}

// flatRecord mirrors the JSON export shape.
type flatRecord struct {
	Source    string  `json:"source"`
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
}

// ReadFile parses an exported record file. ZIP archives are expected
// to hold a single data file; the format is dispatched on extension
// (.csv, .xlsx, .json).
func ReadFile(ctx context.Context, path string) (*Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		tempDir, err := os.MkdirTemp("", "pegasus-import-*")
		if err != nil {
			return nil, eris.Wrap(err, "ingest: temp dir")
		}
		defer os.RemoveAll(tempDir) //nolint:errcheck

		inner, err := fetcher.ExtractZIPSingle(path, tempDir)
		if err != nil {
			return nil, err
		}
		path = inner
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(ctx, path)
	case ".xlsx":
		return readXLSX(path)
	case ".json":
		return readJSON(ctx, path)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

func readCSV(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, f, true)

	result := &Result{}
	for row := range rowCh {
		rec, ok := recordFromRow(row)
		if !ok {
			result.Rejected++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return result, nil
}

func readXLSX(path string) (*Result, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: 1})
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, row := range rows {
		rec, ok := recordFromRow(row)
		if !ok {
			result.Rejected++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func readJSON(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recCh, errCh := fetcher.DecodeJSONArray[flatRecord](ctx, f)

	result := &Result{}
	for flat := range recCh {
		rec, ok := recordFromFlat(flat)
		if !ok {
			result.Rejected++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return result, nil
}

// recordFromRow parses one flat row in the export column order:
// source, id, latitude, longitude, timestamp, title, url.
func recordFromRow(row []string) (model.GeoRecord, bool) {
	if len(row) < 4 {
		return model.GeoRecord{}, false
	}
	flat := flatRecord{Source: row[0], ID: row[1]}

	var err error
	if flat.Latitude, err = strconv.ParseFloat(row[2], 64); err != nil {
		return model.GeoRecord{}, false
	}
	if flat.Longitude, err = strconv.ParseFloat(row[3], 64); err != nil {
		return model.GeoRecord{}, false
	}
	if len(row) > 4 {
		flat.Timestamp = row[4]
	}
	if len(row) > 5 {
		flat.Title = row[5]
	}
	if len(row) > 6 {
		flat.URL = row[6]
	}
	return recordFromFlat(flat)
}

func recordFromFlat(flat flatRecord) (model.GeoRecord, bool) {
	src, err := model.ParseSource(flat.Source)
	if err != nil {
		zap.L().Debug("import row rejected", zap.String("source", flat.Source))
		return model.GeoRecord{}, false
	}
	if flat.Latitude < -90 || flat.Latitude > 90 || flat.Longitude < -180 || flat.Longitude > 180 {
		return model.GeoRecord{}, false
	}

	rec := model.GeoRecord{
		Source:    src,
		ID:        flat.ID,
		Latitude:  flat.Latitude,
		Longitude: flat.Longitude,
		Title:     flat.Title,
		URL:       flat.URL,
	}
	if flat.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, flat.Timestamp); err == nil {
			rec.Timestamp = &ts
		}
	}
	return rec, true
}
