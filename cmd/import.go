package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/fetcher"
	"github.com/pegasus-osint/pegasus-bazooka/internal/ingest"
	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-ftp-url>",
	Short: "Import an exported record file as a new run",
	Long:  "Reads a previously exported CSV, XLSX, or JSON record file (optionally zipped, local or ftp://) and stores it as a run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		if strings.HasPrefix(path, "ftp://") {
			tempDir, err := os.MkdirTemp("", "pegasus-ftp-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tempDir) //nolint:errcheck

			local := filepath.Join(tempDir, filepath.Base(path))
			n, err := fetcher.FetchFTP(ctx, path, local, cfg.HTTP.Timeout())
			if err != nil {
				return err
			}
			zap.L().Info("downloaded import file",
				zap.String("url", path),
				zap.Int64("bytes", n))
			path = local
		}

		result, err := ingest.ReadFile(ctx, path)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run := importRun(args[0], result)
		if err := st.SaveRun(ctx, run, result.Records); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "imported run %s: %d records (%d rows rejected)\n",
			run.ID, len(result.Records), result.Rejected)
		return nil
	},
}

// importRun wraps an imported record set in run bookkeeping.
func importRun(origin string, result *ingest.Result) *model.Run {
	perSource := make(map[model.Source]model.SourceStats)
	for i := range result.Records {
		stats := perSource[result.Records[i].Source]
		stats.Fetched++
		perSource[result.Records[i].Source] = stats
	}

	return &model.Run{
		ID:     uuid.NewString(),
		Query:  model.QuerySpec{Keyword: "import:" + filepath.Base(origin)},
		Status: model.RunStatusComplete,
		Stats: model.RunStats{
			PerSource: perSource,
			Returned:  len(result.Records),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func init() {
	rootCmd.AddCommand(importCmd)
}
