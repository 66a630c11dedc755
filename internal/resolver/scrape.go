package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/dlclark/regexp2"
	"github.com/etherlabsio/go-m3u8/m3u8"
	"github.com/sirupsen/logrus"

	"github.com/fakuz/Streamtom3u/internal/source"
)

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36"
	maxPageSize      = 10 * 1024 * 1024
)

var (
	manifestPattern = regexp2.MustCompile(`(?<=hlsManifestUrl":").*?\.m3u8`, regexp2.RE2)
	titlePattern    = regexp.MustCompile(`<meta property="og:title" content="([^"]+)"`)
	thumbPattern    = regexp.MustCompile(`<meta property="og:image" content="([^"]+)"`)
)

// PageScrape resolves live streams by fetching the watch page with a
// browser user agent and extracting the HLS manifest URL embedded in
// the player config, then picking a variant at or below the configured
// height from the master playlist.
type PageScrape struct {
	log       logrus.FieldLogger
	maxHeight int
}

// NewPageScrape creates the watch-page scrape strategy.
func NewPageScrape(log logrus.FieldLogger, maxHeight int) *PageScrape {
	return &PageScrape{
		log:       log.WithField("strategy", "scrape"),
		maxHeight: maxHeight,
	}
}

// Name implements Strategy.
func (s *PageScrape) Name() string {
	return "scrape"
}

// Resolve implements Strategy.
func (s *PageScrape) Resolve(ctx context.Context, entry source.Entry, attempt Attempt) (*Stream, error) {
	page, err := s.fetchPage(ctx, attempt.Client, entry.URL)
	if err != nil {
		return nil, err
	}

	match, err := manifestPattern.FindStringMatch(page)
	if err != nil || match == nil {
		return nil, errors.New("no hls manifest found in watch page")
	}

	manifestURL := match.String()

	stream := &Stream{
		MediaURL: manifestURL,
	}

	if m := titlePattern.FindStringSubmatch(page); len(m) > 1 {
		stream.Title = m[1]
	}

	if m := thumbPattern.FindStringSubmatch(page); len(m) > 1 {
		stream.ThumbnailURL = m[1]
	}

	// Variant selection is best-effort: the master manifest still plays
	// if the fetch fails.
	if variant := s.pickVariant(ctx, attempt.Client, manifestURL); variant != "" {
		stream.MediaURL = variant
	}

	return stream, nil
}

func (s *PageScrape) fetchPage(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read watch page: %w", err)
	}

	return string(body), nil
}

// pickVariant downloads the master playlist and returns the URI of the
// highest-resolution variant not exceeding maxHeight, or empty string
// when the master manifest should be used as-is.
func (s *PageScrape) pickVariant(ctx context.Context, client *http.Client, manifestURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return ""
	}

	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	playlist, err := m3u8.Read(resp.Body)
	if err != nil {
		return ""
	}

	best := ""
	bestHeight := 0

	for _, item := range playlist.Playlists() {
		if item.Resolution == nil {
			continue
		}

		height := item.Resolution.Height
		if height > s.maxHeight {
			continue
		}

		if height > bestHeight {
			bestHeight = height
			best = item.URI
		}
	}

	if best == "" {
		return ""
	}

	s.log.WithFields(logrus.Fields{
		"height":  bestHeight,
		"variant": truncateURL(best),
	}).Debug("Selected stream variant")

	return best
}

func truncateURL(url string) string {
	if len(url) <= 80 {
		return url
	}

	return url[:77] + "..."
}
