package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	opts := &engineOptions{}
	rootCmd := &cobra.Command{
		Use:   "cutflow",
		Short: "Inspect the event selection of a run",
		Long: `Generate the standard cuts of a run and report how they act on its events.

The run table is read from a CSV or XLSX file. Process settings come from the
environment (optionally a .env file):
- GOCUTS_ANALYSIS_CONFIG (default: analysis.yaml)
- GOCUTS_RUN_TYPE pad|pixel (default: pad)
- GOCUTS_DUT device under test for per-DUT options
- GOCUTS_CACHE_DSN sqlite file or postgres:// URL (default: in-memory cache)
- LOG_LEVEL ERROR|WARN|INFO|DEBUG|TRACE`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dataPath, "data", "", "Run table (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&opts.run, "run", "", "Run number used in cache keys (default: file name)")
	rootCmd.PersistentFlags().StringVar(&opts.runType, "run-type", "", "Override GOCUTS_RUN_TYPE")
	rootCmd.PersistentFlags().IntVar(&opts.chi2, "chi2", 0, "Override the chi2 percentile of both axes")
	_ = rootCmd.MarkPersistentFlagRequired("data")

	rootCmd.AddCommand(
		newShowCmd(opts),
		newFlowCmd(opts),
		newContributionsCmd(opts),
		newReportCmd(opts),
		newPrecomputeCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
