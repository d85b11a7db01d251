package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "eventguard"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Event risk guard for the prediction pipeline",
		Version: version,
		Long: `EventGuard detects upcoming corporate and regulatory events for a symbol
universe, fuses them with short-horizon sentiment and volatility signals,
and emits per-symbol trading-policy decisions (haircut, skip flag, sit-out
window) consumed by the downstream opportunity-scoring stage.`,
	}

	rootCmd.PersistentFlags().String("config", "config/eventguard.yaml", "Guard configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one guard cycle over the symbol universe",
		Long: `Runs the full batch cycle: merge event catalogs, collect signals, score
risk, translate policy, and write the report and export artifacts. One
RiskAssessment per symbol; per-symbol data failures degrade that symbol
only and never abort the batch.`,
		RunE: runCycle,
	}
	cycleCmd.Flags().String("universe", "config/universe.yaml", "Symbol universe yaml")
	cycleCmd.Flags().String("as-of", "", "As-of date (2006-01-02, default today UTC)")
	cycleCmd.Flags().String("feed", "", "Feed snapshot CSV (next earnings/dividend dates)")
	cycleCmd.Flags().String("sentiment", "", "Sentiment drop CSV")
	cycleCmd.Flags().String("returns", "", "Daily returns CSV")
	cycleCmd.Flags().String("out-dir", "out", "Artifact output directory")
	cycleCmd.Flags().Int("max-concurrency", 0, "Override worker pool bound")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Dump the merged event catalog for symbols",
		Long:  "Merges the feed snapshot and manual calendar and prints every known event per symbol.",
		RunE:  runEvents,
	}
	eventsCmd.Flags().String("universe", "config/universe.yaml", "Symbol universe yaml")
	eventsCmd.Flags().String("as-of", "", "As-of date (2006-01-02, default today UTC)")
	eventsCmd.Flags().String("feed", "", "Feed snapshot CSV")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the guard configuration",
		Long:  "Loads the config file and runs every startup check. Exit code 0 means a cycle may run.",
		RunE:  runValidate,
	}

	rootCmd.AddCommand(cycleCmd, eventsCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func parseAsOf(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("as-of")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad --as-of date: %w", err)
	}
	return asOf, nil
}
