package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/tracing"
)

var showCmd = &cobra.Command{
	Use:   "show [database]",
	Short: "Print the statistics stored by `run --record`.",
	Long: "`show cachesim_xxx.sqlite3` prints the final counters of every " +
		"cache recorded in the database.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func show(ctx context.Context, dbPath string, out io.Writer) error {
	reader, err := datarecording.NewReader(strings.TrimSuffix(dbPath, ".sqlite3"))
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(tracing.StatsTableName, tracing.StatsEntry{})

	entries, _, err := reader.Query(ctx, tracing.StatsTableName,
		datarecording.QueryParams{OrderBy: "Cache"})
	if err != nil {
		return err
	}

	for _, e := range entries {
		entry := e.(tracing.StatsEntry)

		err := report.PrintStats(out, entry.Cache, cache.Stats{
			Accesses:   uint64(entry.Accesses),
			Hits:       uint64(entry.Hits),
			Misses:     uint64(entry.Misses),
			Writes:     uint64(entry.Writes),
			Writebacks: uint64(entry.Writebacks),
		})
		if err != nil {
			return err
		}
	}

	return nil
}
