// Command benchmark replays the synthetic cache workloads through the cache
// engines and reports hits, misses and evictions for each.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	--csv        Output results in CSV format (default: human-readable)
//	--json       Output results in JSON format
//	--engine     Engine to run, repeatable (default: native and akita)
//	--transpose  Only run the matrix transpose workloads
//
// Example:
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark --csv > results.csv
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/csim/benchmarks"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.WithError(err).Error("benchmark failed")
		os.Exit(1)
	}
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	var (
		csvOutput  bool
		jsonOutput bool
		transpose  bool
		verbose    bool
	)

	config := benchmarks.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "benchmark",
		Short:         "Run the synthetic cache workloads.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if csvOutput && jsonOutput {
				return fmt.Errorf("--csv and --json are mutually exclusive")
			}

			config.Output = cmd.OutOrStdout()
			config.Verbose = verbose

			harness := benchmarks.NewHarness(config)
			if transpose {
				harness.AddBenchmarks(benchmarks.GetTransposeWorkloads())
			} else {
				harness.AddBenchmarks(benchmarks.GetWorkloads())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			results, err := harness.RunAll(ctx)
			if err != nil {
				return err
			}

			logger.WithField("results", len(results)).Debug("benchmarks finished")

			switch {
			case csvOutput:
				harness.PrintCSV(results)
			case jsonOutput:
				return harness.PrintJSON(results)
			default:
				harness.PrintResults(results)
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&csvOutput, "csv", false, "Output results in CSV format")
	f.BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	f.BoolVar(&transpose, "transpose", false, "Only run the matrix transpose workloads")
	f.BoolVarP(&verbose, "verbose", "v", false, "Print progress for each run")
	f.StringSliceVar(&config.Engines, "engine", config.Engines, "Engines to run")

	return cmd
}
