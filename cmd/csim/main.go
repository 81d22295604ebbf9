// Package main provides the csim command, a trace-driven set-associative
// cache simulator with LRU replacement.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/metrics"
	"github.com/sarchlab/csim/record"
	"github.com/sarchlab/csim/sim"
	"github.com/sarchlab/csim/trace"
)

// errConfig marks problems with the command line or the geometry file.
var errConfig = errors.New("configuration error")

type options struct {
	setBits     uint
	lines       int
	blockBits   uint
	tracePath   string
	verbose     bool
	configPath  string
	model       string
	verify      bool
	recordPath  string
	metricsPath string
	resultsPath string
	logLevel    string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "csim -s <s> -E <E> -b <b> -t <tracefile>",
		Short: "Simulate a set-associative LRU cache over a memory trace",
		Long: `csim replays a valgrind lackey memory trace against a cache with 2^s sets,
E lines per set and 2^b-byte blocks, using least-recently-used replacement,
and prints the number of hits, misses and evictions.

Examples:
  # Direct-mapped cache, 16 sets of 16-byte blocks
  csim -s 4 -E 1 -b 4 -t traces/yi.trace

  # Print the outcome of every access
  csim -v -s 4 -E 1 -b 4 -t traces/yi.trace

  # Cross-check against the Akita directory model
  csim -s 5 -E 2 -b 4 -t trace.zst --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.UintVarP(&opts.setBits, "set-bits", "s", 0, "number of set index bits (S = 2^s sets)")
	flags.IntVarP(&opts.lines, "lines", "E", 0, "associativity (number of lines per set)")
	flags.UintVarP(&opts.blockBits, "block-bits", "b", 0, "number of block bits (B = 2^b bytes per block)")
	flags.StringVarP(&opts.tracePath, "trace", "t", "", "valgrind trace to replay (supports .zst)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print the outcome of every access")
	flags.StringVar(&opts.configPath, "config", "", "JSON geometry file; -s, -E and -b override it")
	flags.StringVar(&opts.model, "model", cache.ModelCore,
		fmt.Sprintf("cache model: %s, %s, %s", cache.ModelCore, cache.ModelAkita, cache.ModelGolangLRU))
	flags.BoolVar(&opts.verify, "verify", false, "run a reference model in lockstep and stop on disagreement")
	flags.StringVar(&opts.recordPath, "record", "", "SQLite file to record every access into")
	flags.StringVar(&opts.metricsPath, "metrics", "", "write Prometheus metrics to this textfile")
	flags.StringVar(&opts.resultsPath, "results", "", "also write \"<hits> <misses> <evictions>\" to this file")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "diagnostic log level: debug, info, warn, error")

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func run(cmd *cobra.Command, opts *options) error {
	geometry, err := resolveGeometry(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	model, err := cache.NewModel(opts.model, *geometry)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	reader, err := trace.Open(opts.tracePath, trace.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	out := cmd.OutOrStdout()
	runnerOpts := []sim.RunnerOption{sim.WithLogger(logger)}
	if opts.verbose {
		runnerOpts = append(runnerOpts, sim.WithVerbose(out))
	}
	if opts.verify {
		runnerOpts = append(runnerOpts, sim.WithReference(referenceFor(opts.model, *geometry)))
	}

	var registry *prometheus.Registry
	if opts.metricsPath != "" {
		registry = prometheus.NewRegistry()
		collector, err := metrics.New(registry)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, sim.WithObserver(collector))
	}

	var recorder *record.SQLiteRecorder
	if opts.recordPath != "" {
		recorder, err = record.New(opts.recordPath)
		if err != nil {
			return err
		}
		defer func() { _ = recorder.Close() }()
		logger.Info("recording accesses",
			zap.String("path", opts.recordPath),
			zap.String("run", recorder.RunID()))
		runnerOpts = append(runnerOpts, sim.WithObserver(recorder))
	}

	runner := sim.NewRunner(model, *geometry, runnerOpts...)
	counters, err := runner.Run(reader)
	if err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return err
		}
		if err := recorder.Summary(*geometry, counters); err != nil {
			return err
		}
	}

	if registry != nil {
		if err := metrics.WriteTextfile(opts.metricsPath, registry); err != nil {
			return err
		}
	}

	if opts.resultsPath != "" {
		if err := sim.WriteResults(opts.resultsPath, counters); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(out, sim.FormatSummary(counters))
	return err
}

// resolveGeometry merges the geometry file, if any, with the command-line
// flags and validates the result.
func resolveGeometry(cmd *cobra.Command, opts *options) (*cache.Geometry, error) {
	flags := cmd.Flags()

	var geometry *cache.Geometry
	if opts.configPath != "" {
		g, err := cache.LoadGeometry(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errConfig, err)
		}
		geometry = g
	} else {
		for _, name := range []string{"set-bits", "lines", "block-bits"} {
			if !flags.Changed(name) {
				return nil, fmt.Errorf("%w: missing required flag --%s", errConfig, name)
			}
		}
		geometry = &cache.Geometry{}
	}

	if flags.Changed("set-bits") {
		geometry.SetIndexBits = opts.setBits
	}
	if flags.Changed("lines") {
		geometry.Associativity = opts.lines
	}
	if flags.Changed("block-bits") {
		geometry.BlockOffsetBits = opts.blockBits
	}

	if opts.tracePath == "" {
		return nil, fmt.Errorf("%w: missing required flag --trace", errConfig)
	}

	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}

	return geometry, nil
}

// referenceFor picks a lockstep reference that is not the model under test.
func referenceFor(model string, g cache.Geometry) cache.Model {
	if model == cache.ModelAkita {
		return cache.NewListModel(g)
	}
	return cache.NewDirectoryModel(g)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
