package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/briefcast/briefcast/internal/aggregator"
	"github.com/briefcast/briefcast/internal/ai"
	"github.com/briefcast/briefcast/internal/cache"
	"github.com/briefcast/briefcast/internal/config"
	"github.com/briefcast/briefcast/internal/logging"
	"github.com/briefcast/briefcast/internal/models"
	"github.com/briefcast/briefcast/internal/notify"
	"github.com/briefcast/briefcast/internal/research"
	"github.com/briefcast/briefcast/internal/sources"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "briefcast",
		Short:         "Multi-source content aggregation for AI podcast research",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAggregateCmd())
	root.AddCommand(newCacheCmd())
	return root
}

func newAggregateCmd() *cobra.Command {
	var (
		topic          string
		daysBack       int
		maxPerPlatform int
		noCache        bool
		sendDigest     bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate content about a topic from all configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel)

			if daysBack <= 0 {
				daysBack = cfg.Aggregator.DaysBack
			}
			if maxPerPlatform <= 0 {
				maxPerPlatform = cfg.Aggregator.MaxPerPlatform
			}

			var analyzer aggregator.Analyzer
			if cfg.Analysis.Enabled && cfg.Analysis.APIKey != "" {
				analyzer = ai.NewOpenAIClient(cfg.Analysis.APIKey, cfg.Analysis.Model)
			}

			agg := aggregator.New(buildSources(cfg), analyzer, aggregator.Options{
				AdapterTimeout:  cfg.Aggregator.AdapterTimeout,
				GlobalDeadline:  cfg.Aggregator.GlobalDeadline,
				AnalysisTimeout: cfg.Analysis.Timeout,
			}, logger)

			run := agg.AggregateAll
			if !noCache {
				backend := cache.New(cfg.CacheOptions(), logger)
				run = research.New(agg.AggregateAll, backend, cfg.Cache.ResultTTL, cfg.Fingerprint(), logger).AggregateAll
			}

			result, err := run(cmd.Context(), topic, daysBack, maxPerPlatform)
			if err != nil {
				return err
			}

			if sendDigest {
				notifier, err := notify.New(cfg.Notify.TelegramToken, cfg.Notify.TelegramChat, logger)
				if err != nil {
					logger.Warn("notifier unavailable", "error", err)
				} else {
					notifier.SendDigest(result)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic to research")
	cmd.Flags().IntVar(&daysBack, "days-back", 0, "how many days of content to include")
	cmd.Flags().IntVar(&maxPerPlatform, "max-per-platform", 0, "item budget per platform")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&sendDigest, "notify", false, "send the digest to Telegram")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel)

			if !cache.New(cfg.CacheOptions(), logger).Clear() {
				return fmt.Errorf("cache clear failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	})

	return cacheCmd
}

// buildSources constructs one adapter per enabled platform.
func buildSources(cfg config.Config) []sources.Source {
	var out []sources.Source
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		switch sc.Platform {
		case models.PlatformForum:
			out = append(out, sources.NewForumClient(sc.Endpoint, sc.Forums))
		case models.PlatformFeed:
			out = append(out, sources.NewFeedClient(sc.Feeds))
		case models.PlatformMicroblog:
			out = append(out, sources.NewMicroblogClient(sc.Endpoint, sc.APIKey))
		case models.PlatformVideo:
			out = append(out, sources.NewVideoClient(sc.Endpoint, sc.APIKey))
		case models.PlatformNews:
			out = append(out, sources.NewNewsClient(sc.Endpoint, sc.APIKey))
		}
	}
	return out
}
