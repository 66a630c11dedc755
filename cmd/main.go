// Package main is the entry point for the playlist generator.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fakuz/Streamtom3u/internal/config"
	"github.com/fakuz/Streamtom3u/internal/guide"
	"github.com/fakuz/Streamtom3u/internal/playlist"
	"github.com/fakuz/Streamtom3u/internal/reconcile"
	"github.com/fakuz/Streamtom3u/internal/resolver"
	"github.com/fakuz/Streamtom3u/internal/runner"
	"github.com/fakuz/Streamtom3u/internal/source"
)

var (
	cfg = config.DefaultConfig()
	log = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streamtom3u",
		Short: "Convert a list of stream source URLs into an IPTV playlist",
		Long: `Resolves each source URL to a playable media URL through API mirrors,
watch-page scraping, and yt-dlp, enriches entries with guide metadata via
fuzzy channel-name matching, and writes an M3U playlist.`,
		RunE: run,
	}

	// File flags
	rootCmd.Flags().StringVar(&cfg.InputPath, "input", cfg.InputPath, "Source list file (URL | Category | Name per line)")
	rootCmd.Flags().StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output M3U playlist file")

	// Guide flags
	rootCmd.Flags().StringVar(&cfg.GuideURL, "guide", cfg.GuideURL, "Comma-separated guide (XMLTV) document URLs")
	rootCmd.Flags().IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Fuzzy match score threshold (1-100)")

	// Resolution flags
	rootCmd.Flags().StringVar(&cfg.FallbackURL, "fallback", cfg.FallbackURL, "Static fallback media URL for unresolvable sources")
	rootCmd.Flags().StringVar(&cfg.Mirrors, "mirrors", cfg.Mirrors, "Comma-separated API mirror base URLs")
	rootCmd.Flags().StringVar(&cfg.YTDLPPath, "ytdlp", cfg.YTDLPPath, "Path to the yt-dlp binary")
	rootCmd.Flags().StringVar(&cfg.CookiesPath, "cookies", cfg.CookiesPath, "Cookie jar file passed to yt-dlp")
	rootCmd.Flags().StringVar(&cfg.ProxiesPath, "proxies", cfg.ProxiesPath, "File with one proxy URL per line")
	rootCmd.Flags().IntVar(&cfg.MaxHeight, "max-height", cfg.MaxHeight, "Preferred maximum video height")
	rootCmd.Flags().IntVar(&cfg.Attempts, "attempts", cfg.Attempts, "Resolution attempts per source before fallback")

	// Execution flags
	rootCmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Worker pool size")
	rootCmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-attempt timeout")
	rootCmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Configure logger
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"input":  cfg.InputPath,
		"output": cfg.OutputPath,
		"guides": len(cfg.GuideURLs()),
	}).Info("Starting playlist generation")

	ctx := context.Background()

	// Missing input file is the only fatal error of the run.
	entries, err := source.Load(cfg.InputPath)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return fmt.Errorf("source list %q contains no entries", cfg.InputPath)
	}

	log.WithField("entries", len(entries)).Info("Loaded source list")

	reconciler := buildReconciler(ctx)

	chain, err := buildChain()
	if err != nil {
		return err
	}

	results, err := runner.New(log, chain, reconciler, cfg.Workers).Run(ctx, entries)
	if err != nil {
		return err
	}

	output := playlist.Render(results, cfg.GuideURLs())

	if err := os.WriteFile(cfg.OutputPath, []byte(output), 0o644); err != nil { //nolint:gosec // world-readable playlist file
		return fmt.Errorf("failed to write playlist: %w", err)
	}

	log.WithFields(logrus.Fields{
		"output":  cfg.OutputPath,
		"entries": len(results),
	}).Info("Playlist written")

	return nil
}

// buildReconciler loads guide sources and constructs the name
// reconciler, or returns nil when no guide is configured or every
// source failed.
func buildReconciler(ctx context.Context) *reconcile.Reconciler {
	guideURLs := cfg.GuideURLs()
	if len(guideURLs) == 0 {
		return nil
	}

	index := guide.NewLoader(log, guideURLs).Load(ctx)
	if index.Len() == 0 {
		log.Warn("No guide channels loaded, titles will pass through unmatched")

		return nil
	}

	return reconcile.New(index, reconcile.Config{Threshold: cfg.Threshold})
}

func buildChain() (*resolver.Chain, error) {
	proxies, err := resolver.LoadProxyList(cfg.ProxiesPath)
	if err != nil {
		return nil, err
	}

	if proxies.Len() > 0 {
		log.WithField("proxies", proxies.Len()).Info("Loaded proxy list")
	}

	return resolver.NewChain(log, resolver.Options{
		Strategies: []resolver.Strategy{
			resolver.NewPipedAPI(log, cfg.MirrorURLs()),
			resolver.NewPageScrape(log, cfg.MaxHeight),
			resolver.NewYTDLP(log, cfg.YTDLPPath, cfg.MaxHeight, cfg.CookiesPath),
		},
		Proxies:     proxies,
		FallbackURL: cfg.FallbackURL,
		Attempts:    cfg.Attempts,
		Timeout:     cfg.Timeout,
	}), nil
}
