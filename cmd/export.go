package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pegasus-osint/pegasus-bazooka/internal/export"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a stored run's records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.GetRecords(ctx, args[0])
		if err != nil {
			return err
		}
		return writeRecords(records, exportOutput, exportFormat)
	},
}

// writeRecords routes a record set to the chosen sink. The format
// falls back to the output file's extension, then the config default.
func writeRecords(records []model.GeoRecord, output, format string) error {
	if format == "" && output != "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	if format == "" {
		format = cfg.Output.Format
	}
	if format == "" {
		format = "json"
	}

	switch format {
	case "shapefile", "shp":
		if output == "" {
			return eris.New("shapefile export requires --output")
		}
		return export.WriteShapefile(output, records)
	case "csv", "json", "geojson":
		// handled below
	default:
		return eris.Errorf("unknown export format %q", format)
	}

	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "create %s", output)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	switch format {
	case "csv":
		return export.WriteCSV(w, records)
	case "geojson":
		return export.WriteGeoJSON(w, records)
	default:
		return export.WriteJSON(w, records)
	}
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "output format: csv, json, geojson, shapefile")
	rootCmd.AddCommand(exportCmd)
}
