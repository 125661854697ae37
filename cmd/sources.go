package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pegasus-osint/pegasus-bazooka/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known sources and their configuration state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := source.BuildRegistry(cfg, nil)
		formatSources(os.Stdout, reg)
		return nil
	},
}

func formatSources(w io.Writer, reg *source.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCONFIGURED")
	for _, a := range reg.All() {
		state := "no"
		if a.Configured() {
			state = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.Name(), state)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
