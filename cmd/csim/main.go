// Package main provides the entry point for CSim.
// CSim replays a valgrind memory trace through a set-associative LRU cache
// and reports hits, misses and evictions.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/config"
	"github.com/sarchlab/csim/record"
	"github.com/sarchlab/csim/replay"
	"github.com/sarchlab/csim/report"
	"github.com/sarchlab/csim/trace"
)

// options holds values that only exist on the command line.
type options struct {
	// flags receives the configuration flags. Only flags the user set
	// override the file and environment.
	flags *config.Config

	configPath string
	envFile    string
	debug      bool
	cpuProfile string
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.WithError(err).Error("csim failed")
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	opts := &options{flags: config.Default()}

	cmd := &cobra.Command{
		Use:   "csim [-hv] -s <s> -E <E> -b <b> -t <tracefile>",
		Short: "Simulate a set-associative LRU cache over a valgrind memory trace.",
		Long: `CSim replays the data accesses of a valgrind lackey trace through a ` +
			`cache with 2^s sets of E lines and 2^b byte blocks, using LRU ` +
			`replacement, and prints the number of hits, misses and evictions.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, logger)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.flags.SetBits, "set-bits", "s", 0,
		"Number of set index bits (S = 2^s is the number of sets)")
	f.IntVarP(&opts.flags.Associativity, "associativity", "E", 0,
		"Associativity (number of lines per set)")
	f.IntVarP(&opts.flags.BlockBits, "block-bits", "b", 0,
		"Number of block bits (B = 2^b is the block size)")
	f.StringVarP(&opts.flags.TracePath, "trace", "t", "",
		"Name of the valgrind trace to replay")
	f.BoolVarP(&opts.flags.Verbose, "verbose", "v", false,
		"Print the outcome of every access")
	f.BoolVar(&opts.flags.Lenient, "lenient", false,
		"Skip malformed trace lines instead of failing")
	f.StringVar(&opts.flags.Engine, "engine", config.EngineNative,
		"Cache model: native or akita")
	f.StringVar(&opts.flags.ResultsPath, "results", config.DefaultResultsPath,
		`File receiving "hits misses evictions" (empty disables)`)
	f.BoolVar(&opts.flags.Record, "record", false,
		"Record every access into a SQLite database")
	f.StringVar(&opts.flags.RecordPath, "record-path", "",
		"SQLite database path (default csim_<id>.sqlite3)")
	f.StringVar(&opts.configPath, "config", "",
		"Path to a JSON configuration file")
	f.StringVar(&opts.envFile, "env-file", ".env",
		"Dotenv file with CSIM_* settings")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	f.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")

	return cmd
}

// loadConfig merges, in increasing precedence, defaults, the JSON file, the
// environment and the flags that were set.
func loadConfig(cmd *cobra.Command, opts *options, logger *logrus.Logger) (*config.Config, error) {
	cfg := config.Default()

	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}

		logger.WithField("path", opts.configPath).Debug("loaded config file")
	}

	applied, err := cfg.ApplyEnv(opts.envFile)
	if err != nil {
		return nil, err
	}
	if len(applied) > 0 {
		logger.WithField("vars", applied).Debug("applied environment")
	}

	overrides := map[string]func(){
		"set-bits":      func() { cfg.SetBits = opts.flags.SetBits },
		"associativity": func() { cfg.Associativity = opts.flags.Associativity },
		"block-bits":    func() { cfg.BlockBits = opts.flags.BlockBits },
		"trace":         func() { cfg.TracePath = opts.flags.TracePath },
		"verbose":       func() { cfg.Verbose = opts.flags.Verbose },
		"lenient":       func() { cfg.Lenient = opts.flags.Lenient },
		"engine":        func() { cfg.Engine = opts.flags.Engine },
		"results":       func() { cfg.ResultsPath = opts.flags.ResultsPath },
		"record":        func() { cfg.Record = opts.flags.Record },
		"record-path":   func() { cfg.RecordPath = opts.flags.RecordPath },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	return cfg, nil
}

func newAccessor(cfg *config.Config) replay.Accessor {
	if cfg.Engine == config.EngineAkita {
		return cache.NewDirectoryEngine(cfg.Geometry())
	}

	return cache.NewEngine(cfg.Geometry())
}

func run(cmd *cobra.Command, opts *options, logger *logrus.Logger) (err error) {
	if opts.debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(cmd, opts, logger)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "csim: %v\n%s", err, cmd.UsageString())

		return err
	}

	log := logger.WithFields(logrus.Fields{
		"s":      cfg.SetBits,
		"E":      cfg.Associativity,
		"b":      cfg.BlockBits,
		"engine": cfg.Engine,
		"trace":  cfg.TracePath,
	})
	log.Debug("starting simulation")

	if opts.cpuProfile != "" {
		stop, err := startCPUProfile(opts.cpuProfile)
		if err != nil {
			return err
		}
		defer stop()
	}

	f, err := os.Open(cfg.TracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	var replayOpts []replay.Option
	if cfg.Verbose {
		replayOpts = append(replayOpts,
			replay.WithObserver(report.NewVerbosePrinter(cmd.OutOrStdout())))
	}

	if cfg.Record {
		rec, recErr := record.New(cfg.RecordPath)
		if recErr != nil {
			return recErr
		}

		atexit.Register(func() { _ = rec.Close() })
		defer func() {
			err = errors.Join(err, rec.Close())
		}()

		replayOpts = append(replayOpts, replay.WithObserver(rec))
		log.WithField("database", rec.Path()).Info("recording accesses")
	}

	var readerOpts []trace.ReaderOption
	if cfg.Lenient {
		readerOpts = append(readerOpts, trace.WithLenient())
	}
	reader := trace.NewReader(f, readerOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stats, err := replay.New(newAccessor(cfg), replayOpts...).Run(ctx, reader)
	if err != nil {
		return fmt.Errorf("replay stopped at line %d: %w", reader.Line(), err)
	}

	if reader.Skipped() > 0 {
		log.WithField("lines", reader.Skipped()).Warn("skipped malformed trace lines")
	}

	if err := report.PrintSummary(cmd.OutOrStdout(), stats); err != nil {
		return err
	}

	if err := report.WriteResults(cfg.ResultsPath, stats); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
		"hit_rate":  stats.HitRate(),
	}).Debug("simulation finished")

	return nil
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}
