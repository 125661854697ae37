package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

var (
	searchRadiusKM   float64
	searchKeyword    string
	searchSources    []string
	searchSince      string
	searchUntil      string
	searchDays       int
	searchMaxResults int
	searchOutput     string
	searchFormat     string
	searchNoSave     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query sources for geotagged content",
}

var searchCoordinatesCmd = &cobra.Command{
	Use:   "coordinates <lat> <lng>",
	Short: "Search around a coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var lat, lng float64
		if _, err := fmt.Sscanf(args[0], "%f", &lat); err != nil {
			return eris.Wrapf(err, "parse latitude %q", args[0])
		}
		if _, err := fmt.Sscanf(args[1], "%f", &lng); err != nil {
			return eris.Wrapf(err, "parse longitude %q", args[1])
		}

		q, err := buildQuery(&model.LatLng{Lat: lat, Lng: lng})
		if err != nil {
			return err
		}
		return runSearch(cmd, q)
	},
}

var searchKeywordCmd = &cobra.Command{
	Use:   "keyword <term>",
	Short: "Search by keyword across sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		searchKeyword = args[0]
		q, err := buildQuery(nil)
		if err != nil {
			return err
		}
		return runSearch(cmd, q)
	},
}

// buildQuery assembles a QuerySpec from the search flags and config
// defaults.
func buildQuery(center *model.LatLng) (*model.QuerySpec, error) {
	q := &model.QuerySpec{
		Center:     center,
		Keyword:    searchKeyword,
		MaxResults: searchMaxResults,
	}
	if q.MaxResults <= 0 {
		q.MaxResults = cfg.Search.MaxResults
	}

	if center != nil {
		q.RadiusKM = searchRadiusKM
		if q.RadiusKM <= 0 {
			q.RadiusKM = float64(cfg.Search.DefaultRadiusKM)
		}
	}

	if searchSince != "" {
		start, err := time.Parse("2006-01-02", searchSince)
		if err != nil {
			return nil, eris.Wrapf(err, "parse --since %q", searchSince)
		}
		q.Start = &start
	}
	if searchUntil != "" {
		end, err := time.Parse("2006-01-02", searchUntil)
		if err != nil {
			return nil, eris.Wrapf(err, "parse --until %q", searchUntil)
		}
		q.End = &end
	}
	if q.Start == nil && q.End == nil && searchDays > 0 {
		start := time.Now().UTC().AddDate(0, 0, -searchDays)
		q.Start = &start
	}

	for _, name := range searchSources {
		src, err := model.ParseSource(name)
		if err != nil {
			return nil, err
		}
		q.Sources = append(q.Sources, src)
	}

	return q, q.Validate()
}

func runSearch(cmd *cobra.Command, q *model.QuerySpec) error {
	ctx := cmd.Context()

	engine, err := initEngine()
	if err != nil {
		return err
	}

	run, records, searchErr := engine.Search(ctx, q)

	if run != nil && !searchNoSave {
		st, stErr := initStore(ctx)
		if stErr != nil {
			return stErr
		}
		defer st.Close() //nolint:errcheck
		if saveErr := st.SaveRun(ctx, run, records); saveErr != nil {
			zap.L().Error("failed to persist run", zap.Error(saveErr))
		}
	}
	if searchErr != nil {
		return searchErr
	}

	for _, f := range run.Failures {
		fmt.Fprintf(os.Stderr, "warning: %s unavailable: %s\n", f.Source, f.Reason)
	}
	fmt.Fprintf(os.Stderr, "run %s: %d records (%d cross-source duplicates collapsed)\n",
		run.ID, len(records), run.Stats.CrossDedup)

	return writeRecords(records, searchOutput, searchFormat)
}

func init() {
	for _, c := range []*cobra.Command{searchCoordinatesCmd, searchKeywordCmd} {
		c.Flags().StringSliceVar(&searchSources, "sources", nil, "sources to query (default: all configured)")
		c.Flags().StringVar(&searchSince, "since", "", "earliest content date (YYYY-MM-DD)")
		c.Flags().StringVar(&searchUntil, "until", "", "latest content date (YYYY-MM-DD)")
		c.Flags().IntVar(&searchDays, "days", 0, "shorthand for --since <today minus N days>")
		c.Flags().IntVar(&searchMaxResults, "max-results", 0, "cap on returned records")
		c.Flags().StringVarP(&searchOutput, "output", "o", "", "output file (default: stdout)")
		c.Flags().StringVarP(&searchFormat, "format", "f", "", "output format: csv, json, geojson, shapefile")
		c.Flags().BoolVar(&searchNoSave, "no-save", false, "skip persisting the run")
	}
	searchCoordinatesCmd.Flags().Float64VarP(&searchRadiusKM, "radius", "r", 0, "search radius in km")
	searchCoordinatesCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "additional keyword filter")

	searchCmd.AddCommand(searchCoordinatesCmd)
	searchCmd.AddCommand(searchKeywordCmd)
	rootCmd.AddCommand(searchCmd)
}
