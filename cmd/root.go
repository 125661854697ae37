package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pegasus-osint/pegasus-bazooka/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pegasus",
	Short: "Multi-source geolocation OSINT aggregator",
	Long:  "Queries social-media and open-data platforms for geotagged content, normalizes the results into one schema, and merges them into a deduplicated dataset.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
