package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/eventguard/internal/catalog"
	"github.com/sawpanic/eventguard/internal/config"
	"github.com/sawpanic/eventguard/internal/datasources"
	"github.com/sawpanic/eventguard/internal/persist"
	"github.com/sawpanic/eventguard/internal/pipeline"
	"github.com/sawpanic/eventguard/internal/policy"
	"github.com/sawpanic/eventguard/internal/report"
	"github.com/sawpanic/eventguard/internal/score"
	"github.com/sawpanic/eventguard/internal/signals"
	"github.com/sawpanic/eventguard/internal/universe"
)

func runCycle(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(cmd)
	if err != nil {
		return err
	}

	universePath, _ := cmd.Flags().GetString("universe")
	uni, err := universe.Load(universePath)
	if err != nil {
		return err
	}

	merger, err := buildMerger(cmd, cfg)
	if err != nil {
		return err
	}
	collector, err := buildCollector(cmd, cfg)
	if err != nil {
		return err
	}

	if override, _ := cmd.Flags().GetInt("max-concurrency"); override > 0 {
		cfg.Pipeline.MaxConcurrency = override
	}

	guard := pipeline.NewGuard(merger, collector,
		score.NewScorer(cfg.Scorer), policy.NewTranslator(cfg.Policy),
		cfg.Pipeline.MaxConcurrency)

	assessments := guard.RunCycle(ctx, uni.Symbols, asOf)

	outDir, _ := cmd.Flags().GetString("out-dir")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stamp := asOf.Format("2006-01-02")

	reportPath := filepath.Join(outDir, fmt.Sprintf("risk_report_%s.json", stamp))
	if err := report.BuildCycleReport(assessments, asOf).WriteJSONFile(reportPath); err != nil {
		return err
	}
	exportPath := filepath.Join(outDir, fmt.Sprintf("risk_export_%s.csv", stamp))
	if err := report.WriteCSVFile(exportPath, assessments); err != nil {
		return err
	}
	log.Info().Str("report", reportPath).Str("export", exportPath).Msg("cycle artifacts written")

	if cfg.Persist.Enabled {
		store, err := persist.Open(ctx, cfg.Persist.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveCycle(ctx, assessments); err != nil {
			return err
		}
		log.Info().Int("rows", len(assessments)).Msg("assessments persisted")
	}
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(cmd)
	if err != nil {
		return err
	}

	universePath, _ := cmd.Flags().GetString("universe")
	uni, err := universe.Load(universePath)
	if err != nil {
		return err
	}
	merger, err := buildMerger(cmd, cfg)
	if err != nil {
		return err
	}

	for _, symbol := range uni.Symbols {
		cat := merger.EventsFor(ctx, symbol, asOf)
		marker := ""
		if cat.Degraded {
			marker = " [degraded: manual only]"
		}
		fmt.Printf("%s%s\n", symbol, marker)
		for _, ev := range cat.Events {
			fmt.Printf("  %-22s %s  source=%-9s conf=%.2f  %s\n",
				ev.Type, ev.Date.Format("2006-01-02"), ev.Source, ev.Confidence, ev.Description)
		}
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Info().Int("max_concurrency", cfg.Pipeline.MaxConcurrency).Msg("configuration valid")
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildMerger(cmd *cobra.Command, cfg *config.Config) (*catalog.Merger, error) {
	calendar, err := catalog.LoadManualCalendar(cfg.Calendar.Path)
	if err != nil {
		return nil, err
	}

	feedPath, _ := cmd.Flags().GetString("feed")
	if feedPath == "" {
		return nil, fmt.Errorf("--feed snapshot is required")
	}
	feed, err := datasources.LoadFileFeed(feedPath)
	if err != nil {
		return nil, err
	}

	var cache *catalog.FeedCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		cache = catalog.NewFeedCache(client, cfg.Cache.TTL)
	}

	return catalog.NewMerger(catalog.NewFeedClient(feed, cfg.Feed, cache), calendar), nil
}

func buildCollector(cmd *cobra.Command, cfg *config.Config) (*signals.Collector, error) {
	sentimentPath, _ := cmd.Flags().GetString("sentiment")
	if sentimentPath == "" {
		return nil, fmt.Errorf("--sentiment drop is required")
	}
	sentiment, err := datasources.LoadFileSentiment(sentimentPath)
	if err != nil {
		return nil, err
	}

	returnsPath, _ := cmd.Flags().GetString("returns")
	if returnsPath == "" {
		return nil, fmt.Errorf("--returns file is required")
	}
	prices, err := datasources.LoadFilePrices(returnsPath)
	if err != nil {
		return nil, err
	}

	return signals.NewCollector(cfg.Signals, sentiment, prices), nil
}
