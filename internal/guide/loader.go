package guide

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 2 * time.Minute
	maxBodySize    = 100 * 1024 * 1024 // guide documents can be large
)

// Loader fetches guide documents from remote URLs and accumulates them
// into an Index.
type Loader struct {
	log        logrus.FieldLogger
	httpClient *http.Client
	urls       []string
}

// NewLoader creates a guide loader for the given document URLs.
func NewLoader(log logrus.FieldLogger, urls []string) *Loader {
	return &Loader{
		log: log.WithField("component", "guide"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		urls: urls,
	}
}

// Load fetches and parses all configured guide sources in order.
// A source that fails to download or parse is skipped with a warning;
// the run never aborts because one guide source is unreachable. Later
// sources overwrite earlier entries under the same channel ID.
func (l *Loader) Load(ctx context.Context) *Index {
	index := NewIndex()

	for i, url := range l.urls {
		l.log.WithFields(logrus.Fields{
			"url":      url,
			"priority": i + 1,
			"total":    len(l.urls),
		}).Info("Fetching guide source")

		data, err := l.fetch(ctx, url)
		if err != nil {
			l.log.WithError(err).WithField("url", url).Warn("Failed to fetch guide source")

			continue
		}

		tv, err := Parse(data)
		if err != nil {
			l.log.WithError(err).WithField("url", url).Warn("Failed to parse guide source")

			continue
		}

		added := index.AddAll(tv)

		l.log.WithFields(logrus.Fields{
			"url":      url,
			"channels": added,
		}).Info("Loaded guide source")
	}

	l.log.WithField("channels", index.Len()).Info("Guide index built")

	return index
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body

	// Compressed guides are detected by URL suffix or response encoding.
	if strings.HasSuffix(url, ".gz") || strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gzReader, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", gzErr)
		}
		defer gzReader.Close()

		reader = gzReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	l.log.WithField("size", len(data)).Debug("Fetched guide data")

	return data, nil
}
