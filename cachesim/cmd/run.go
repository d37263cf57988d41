package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/trace"
	"github.com/sarchlab/cachesim/tracing"
)

type runConfig struct {
	tracePath   string
	name        string
	numSets     int
	assoc       int
	lineSize    int
	noFill      bool
	dump        bool
	dumpFile    bool
	outputDir   string
	record      bool
	recordPath  string
	monitor     bool
	monitorPort int
	openBrowser bool
	byType      bool
	verbose     bool
}

var runCmd = &cobra.Command{
	Use:   "run [trace]",
	Short: "Replay a trace on a cache.",
	Long: "`run trace.txt` feeds every access of the trace to a cache and " +
		"prints the statistics. Each trace line is `<type> <hex address>`, " +
		"where type is 0 (read), 1 (write), or 2 (instruction fetch).",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readRunConfig(cmd, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return run(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("trace", "", "Path to the trace file.")
	flags.String("name", "L1", "Name of the cache, used in reports.")
	flags.Int("num-sets", 64, "Number of sets, a power of 2.")
	flags.Int("assoc", 4, "Number of ways per set.")
	flags.Int("line-size", 64, "Line size in bytes, a power of 2.")
	flags.Bool("no-fill", false, "Issue probe accesses that never hit.")
	flags.Bool("dump", false, "Print the tag store after the run.")
	flags.Bool("dump-file", false, "Write the tag store to <name>.dump.")
	flags.String("output-dir", ".", "Directory of the dump file.")
	flags.Bool("record", false, "Record every access into SQLite.")
	flags.String("record-path", "",
		"Database path without the .sqlite3 suffix. A random name is used "+
			"if empty.")
	flags.Bool("monitor", false, "Start the monitoring web server.")
	flags.Int("monitor-port", 0, "Port of the monitoring server.")
	flags.Bool("open-browser", false, "Open the monitor in a browser.")
	flags.Bool("by-type", false, "Break the counters down by access type.")
	flags.Bool("verbose", false, "Log every access to stderr.")
}

func readRunConfig(cmd *cobra.Command, args []string) (runConfig, error) {
	flags := cmd.Flags()
	cfg := runConfig{}

	cfg.tracePath, _ = flags.GetString("trace")
	if len(args) == 1 {
		cfg.tracePath = args[0]
	}

	if cfg.tracePath == "" {
		return cfg, fmt.Errorf("no trace given")
	}

	cfg.name, _ = flags.GetString("name")
	cfg.numSets, _ = flags.GetInt("num-sets")
	cfg.assoc, _ = flags.GetInt("assoc")
	cfg.lineSize, _ = flags.GetInt("line-size")
	cfg.noFill, _ = flags.GetBool("no-fill")
	cfg.dump, _ = flags.GetBool("dump")
	cfg.dumpFile, _ = flags.GetBool("dump-file")
	cfg.outputDir, _ = flags.GetString("output-dir")
	cfg.record, _ = flags.GetBool("record")
	cfg.recordPath, _ = flags.GetString("record-path")
	cfg.monitor, _ = flags.GetBool("monitor")
	cfg.monitorPort, _ = flags.GetInt("monitor-port")
	cfg.openBrowser, _ = flags.GetBool("open-browser")
	cfg.byType, _ = flags.GetBool("by-type")
	cfg.verbose, _ = flags.GetBool("verbose")

	return cfg, nil
}

func buildSimulation(cfg runConfig) *simulation.Simulation {
	b := simulation.MakeBuilder()

	if cfg.noFill {
		b = b.WithNoFill()
	}

	if cfg.record {
		b = b.WithDataRecording()
		if cfg.recordPath != "" {
			b = b.WithOutputFileName(cfg.recordPath)
		}
	}

	if cfg.monitor {
		b = b.WithMonitoring()
		if cfg.monitorPort != 0 {
			b = b.WithMonitorPort(cfg.monitorPort)
		}
	}

	return b.Build()
}

func run(ctx context.Context, cfg runConfig, out io.Writer) error {
	c, err := cache.New(cfg.name, cfg.numSets, cfg.assoc, cfg.lineSize)
	if err != nil {
		return err
	}

	typeCounter := tracing.NewTypeCountTracer()
	c.AcceptHook(typeCounter)

	if cfg.verbose {
		c.AcceptHook(tracing.NewLogTracer(log.New(os.Stderr, "", 0)))
	}

	tr, err := trace.Open(cfg.tracePath)
	if err != nil {
		return err
	}
	defer tr.Close()

	sim := buildSimulation(cfg)
	sim.RegisterCache(c)

	if cfg.monitor && cfg.openBrowser {
		if err := sim.GetMonitor().OpenInBrowser(sim.MonitorURL()); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	_, runErr := sim.Run(ctx, tr)

	if err := sim.Terminate(); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("%s: %w", cfg.tracePath, runErr)
	}

	return writeReports(cfg, c, typeCounter, out)
}

func writeReports(
	cfg runConfig,
	c *cache.Cache,
	typeCounter *tracing.TypeCountTracer,
	out io.Writer,
) error {
	if err := report.PrintStats(out, c.Name(), c.Stats()); err != nil {
		return err
	}

	if cfg.byType {
		for _, t := range []cache.AccessType{
			cache.Read, cache.Write, cache.InstructionFetch,
		} {
			count := typeCounter.Count(t)
			fmt.Fprintf(out, "%s: accesses %d, hits %d, misses %d\n",
				t, count.Accesses, count.Hits, count.Misses)
		}
	}

	if cfg.dump {
		if err := report.DumpTagStore(out, c.Snapshot()); err != nil {
			return err
		}
	}

	if cfg.dumpFile {
		path, err := report.DumpTagStoreToFile(cfg.outputDir, c.Snapshot())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Tag store written to %s\n", path)
	}

	return nil
}
