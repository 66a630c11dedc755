// Package main provides a CLI tool for debugging guide name
// reconciliation.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fakuz/Streamtom3u/internal/guide"
	"github.com/fakuz/Streamtom3u/internal/reconcile"
	"github.com/fakuz/Streamtom3u/internal/source"
)

var (
	inputPath string
	guidePath string
	threshold int
	logLevel  string
	log       = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "matcher",
		Short: "Debug guide name reconciliation",
		Long: `A debugging tool to analyze how source list names match guide channels.

Outputs detailed information about:
- Which names matched and by what tier (exact, keyword, fuzzy)
- Which names failed to match, with the closest-scoring candidates
- Summary statistics

Examples:
  # Using a local guide file
  go run cmd/matcher/main.go --input links.txt --guide testdata/epg.xml

  # Using a guide URL
  go run cmd/matcher/main.go --input links.txt --guide https://epg.example.com/epg.xml`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&inputPath, "input", "", "Path to source list (required)")
	rootCmd.Flags().StringVar(&guidePath, "guide", "", "Path or URL to guide XML (required)")
	rootCmd.Flags().IntVar(&threshold, "threshold", reconcile.DefaultThreshold, "Fuzzy match score threshold (1-100)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "debug", "Log level (debug, info, warn, error)")

	if err := rootCmd.MarkFlagRequired("input"); err != nil {
		log.WithError(err).Fatal("Failed to mark input flag as required")
	}

	if err := rootCmd.MarkFlagRequired("guide"); err != nil {
		log.WithError(err).Fatal("Failed to mark guide flag as required")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadData fetches data from a URL or reads from a local file.
func loadData(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path) //nolint:gosec,noctx // User-provided URL for CLI tool
		if err != nil {
			return nil, fmt.Errorf("failed to fetch URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP request failed with status: %s", resp.Status)
		}

		return io.ReadAll(resp.Body)
	}

	return os.ReadFile(path)
}

func run(cmd *cobra.Command, args []string) error {
	// Configure logger
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	// Load source list
	log.WithField("source", inputPath).Info("Loading source list")

	entries, err := source.Load(inputPath)
	if err != nil {
		return err
	}

	log.WithField("count", len(entries)).Info("Parsed source entries")

	// Load guide
	log.WithField("source", guidePath).Info("Loading guide")

	guideData, err := loadData(guidePath)
	if err != nil {
		return fmt.Errorf("failed to load guide: %w", err)
	}

	tv, err := guide.Parse(guideData)
	if err != nil {
		return fmt.Errorf("failed to parse guide: %w", err)
	}

	index := guide.NewIndex()
	index.AddAll(tv)

	log.WithField("channels", index.Len()).Info("Built guide index")

	reconciler := reconcile.New(index, reconcile.Config{Threshold: threshold})

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("RUNNING NAME RECONCILIATION (internal/reconcile)")
	fmt.Println(strings.Repeat("=", 80))

	analyzeResults(entries, index, reconciler)

	return nil
}

// analyzeResults prints detailed matching analysis.
func analyzeResults(entries []source.Entry, index *guide.Index, reconciler *reconcile.Reconciler) {
	type outcome struct {
		title  string
		result reconcile.Result
	}

	byTier := make(map[reconcile.Tier][]outcome, 4)
	total := 0

	for _, entry := range entries {
		title := entry.Name
		if title == "" {
			continue
		}

		total++

		result := reconciler.Reconcile(title)
		byTier[result.Tier] = append(byTier[result.Tier], outcome{title: title, result: result})
	}

	matched := len(byTier[reconcile.TierExact]) + len(byTier[reconcile.TierKeyword]) + len(byTier[reconcile.TierFuzzy])

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Printf("MATCHED NAMES (%d/%d)\n", matched, total)
	fmt.Println(strings.Repeat("-", 80))

	for _, tier := range []reconcile.Tier{reconcile.TierExact, reconcile.TierKeyword, reconcile.TierFuzzy} {
		outcomes := byTier[tier]
		if len(outcomes) == 0 {
			continue
		}

		fmt.Printf("\n  [%s] (%d names)\n", strings.ToUpper(tier.String()), len(outcomes))

		for _, o := range outcomes {
			fmt.Printf("    %-40s -> %-30s [%s]\n",
				truncate(o.title, 40),
				truncate(o.result.DisplayName, 30),
				o.result.GuideID,
			)
		}
	}

	unmatched := byTier[reconcile.TierNone]

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Printf("UNMATCHED NAMES (%d/%d)\n", len(unmatched), total)
	fmt.Println(strings.Repeat("-", 80))

	if len(unmatched) == 0 {
		fmt.Println("  All names matched!")
	} else {
		for _, o := range unmatched {
			fmt.Printf("\n  %s\n", o.title)

			closeMatches := findClosestMatches(o.title, index.Ordered())
			if len(closeMatches) > 0 {
				fmt.Println("    close candidates in guide:")

				for _, match := range closeMatches {
					fmt.Printf("      - %s\n", match)
				}
			} else {
				fmt.Println("    no close candidates found")
			}
		}
	}

	// Print summary
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	matchRate := 0.0
	if total > 0 {
		matchRate = float64(matched) / float64(total) * 100
	}

	fmt.Printf("  Total named entries: %d\n", total)
	fmt.Printf("  Matched:             %d (%.1f%%)\n", matched, matchRate)
	fmt.Printf("  Unmatched:           %d\n", len(unmatched))
	fmt.Println()
	fmt.Printf("  By tier:\n")
	fmt.Printf("    exact:   %d\n", len(byTier[reconcile.TierExact]))
	fmt.Printf("    keyword: %d\n", len(byTier[reconcile.TierKeyword]))
	fmt.Printf("    fuzzy:   %d\n", len(byTier[reconcile.TierFuzzy]))

	fmt.Println(strings.Repeat("=", 80))
}

// findClosestMatches scores a name against every guide channel and
// returns the top five candidates with their scores.
func findClosestMatches(title string, channels []guide.Channel) []string {
	type scored struct {
		name  string
		score int
	}

	candidates := make([]scored, 0, len(channels))

	for _, ch := range channels {
		score := fuzzy.TokenSortRatio(strings.ToLower(title), strings.ToLower(ch.DisplayName))
		if score > 0 {
			candidates = append(candidates, scored{
				name:  ch.DisplayName,
				score: score,
			})
		}
	}

	// Sort by score (descending); stable keeps guide order on ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	result := make([]string, 0, 5)

	for i := 0; i < len(candidates) && i < 5; i++ {
		result = append(result, fmt.Sprintf("%s (%d)", candidates[i].name, candidates[i].score))
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	return s[:maxLen-3] + "..."
}
