// Package resolver turns source entries into playable media URLs.
package resolver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fakuz/Streamtom3u/internal/source"
)

// ErrNotApplicable is returned by a strategy that cannot handle the
// given source URL; the chain moves on to the next strategy.
var ErrNotApplicable = errors.New("strategy not applicable to source URL")

const (
	defaultAttempts = 3
	defaultTimeout  = 15 * time.Second
)

// Stream is the resolver output. MediaURL is never empty: total
// failure substitutes the configured fallback URL.
type Stream struct {
	MediaURL     string
	Title        string
	ThumbnailURL string
	Fallback     bool
}

// Attempt carries per-attempt transport state into strategies: an HTTP
// client routed through the attempt's proxy, plus the raw proxy URL for
// strategies that shell out.
type Attempt struct {
	Client   *http.Client
	ProxyURL string
}

// Strategy is one way of obtaining a playable stream for an entry.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, entry source.Entry, attempt Attempt) (*Stream, error)
}

// Resolver resolves one source entry into a stream.
type Resolver interface {
	Resolve(ctx context.Context, entry source.Entry) Stream
}

// Options configures a Chain.
type Options struct {
	Strategies  []Strategy
	Proxies     *ProxyList
	FallbackURL string
	Attempts    int
	Timeout     time.Duration
}

// Chain tries each strategy in fixed order over a bounded number of
// proxy attempts, falling back to a static URL when everything fails.
type Chain struct {
	log         logrus.FieldLogger
	strategies  []Strategy
	proxies     *ProxyList
	fallbackURL string
	attempts    int
	timeout     time.Duration
}

// NewChain creates a resolver chain.
func NewChain(log logrus.FieldLogger, opts Options) *Chain {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	proxies := opts.Proxies
	if proxies == nil {
		proxies = EmptyProxyList()
	}

	return &Chain{
		log:         log.WithField("component", "resolver"),
		strategies:  opts.Strategies,
		proxies:     proxies,
		fallbackURL: opts.FallbackURL,
		attempts:    attempts,
		timeout:     timeout,
	}
}

// Resolve obtains a playable stream for one entry. Each attempt picks a
// proxy and walks the strategy chain with a per-strategy timeout;
// failure of one strategy never prevents trying the next. The returned
// stream always has a non-empty MediaURL.
func (c *Chain) Resolve(ctx context.Context, entry source.Entry) Stream {
	for attempt := 0; attempt < c.attempts; attempt++ {
		proxyURL := c.proxies.Pick()

		client, err := clientFor(proxyURL, c.timeout)
		if err != nil {
			c.log.WithError(err).WithField("proxy", proxyURL).Warn("Invalid proxy, attempting direct")

			client = &http.Client{Timeout: c.timeout}
			proxyURL = ""
		}

		c.log.WithFields(logrus.Fields{
			"url":     entry.URL,
			"attempt": attempt + 1,
			"total":   c.attempts,
			"proxy":   proxyURL,
		}).Debug("Resolving source entry")

		if stream, ok := c.tryStrategies(ctx, entry, Attempt{Client: client, ProxyURL: proxyURL}); ok {
			return stream
		}
	}

	c.log.WithField("url", entry.URL).Warn("All resolution strategies failed, using fallback stream")

	return Stream{
		MediaURL: c.fallbackURL,
		Title:    fallbackTitle(entry),
		Fallback: true,
	}
}

func (c *Chain) tryStrategies(ctx context.Context, entry source.Entry, attempt Attempt) (Stream, bool) {
	for _, strategy := range c.strategies {
		strategyCtx, cancel := context.WithTimeout(ctx, c.timeout)
		stream, err := strategy.Resolve(strategyCtx, entry, attempt)

		cancel()

		if err != nil {
			level := c.log.WithFields(logrus.Fields{
				"url":      entry.URL,
				"strategy": strategy.Name(),
			})

			if errors.Is(err, ErrNotApplicable) {
				level.Debug("Strategy not applicable")
			} else {
				level.WithError(err).Debug("Strategy failed")
			}

			continue
		}

		if stream == nil || stream.MediaURL == "" {
			continue
		}

		resolved := *stream

		// A display name from the source list always wins over the
		// extracted title.
		if entry.Name != "" {
			resolved.Title = entry.Name
		} else if resolved.Title == "" {
			resolved.Title = "Stream"
		}

		c.log.WithFields(logrus.Fields{
			"url":      entry.URL,
			"strategy": strategy.Name(),
			"title":    resolved.Title,
		}).Info("Resolved stream")

		return resolved, true
	}

	return Stream{}, false
}

func fallbackTitle(entry source.Entry) string {
	if entry.Name != "" {
		return entry.Name
	}

	return "Stream"
}
