// Package runner fans source entries out to a bounded worker pool and
// assembles the final playlist entries.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/fakuz/Streamtom3u/internal/playlist"
	"github.com/fakuz/Streamtom3u/internal/reconcile"
	"github.com/fakuz/Streamtom3u/internal/resolver"
	"github.com/fakuz/Streamtom3u/internal/source"
)

// DefaultWorkers is the worker pool size when none is configured.
const DefaultWorkers = 10

// Runner resolves entries in parallel. Tasks are independent; the only
// shared state is the read-only reconciler and the resolver's internal
// best-effort hints.
type Runner struct {
	log        logrus.FieldLogger
	resolver   resolver.Resolver
	reconciler *reconcile.Reconciler
	workers    int
}

// New creates a runner. The reconciler may be nil when no guide data is
// configured; titles then pass through unmodified.
func New(log logrus.FieldLogger, res resolver.Resolver, rec *reconcile.Reconciler, workers int) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Runner{
		log:        log.WithField("component", "runner"),
		resolver:   res,
		reconciler: rec,
		workers:    workers,
	}
}

// Run resolves every entry through a fixed-size pool and returns
// playlist entries in input order. Every returned entry has a non-empty
// MediaURL; unresolvable sources carry the resolver's fallback URL.
func (r *Runner) Run(ctx context.Context, entries []source.Entry) ([]playlist.Entry, error) {
	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]playlist.Entry, len(entries))

	var (
		wg        sync.WaitGroup
		fallbacks atomic.Int64
	)

	for i, entry := range entries {
		i, entry := i, entry

		wg.Add(1)

		if submitErr := pool.Submit(func() {
			defer wg.Done()

			results[i] = r.process(ctx, entry, &fallbacks)
		}); submitErr != nil {
			// Pool rejected the task (released or overloaded); resolve
			// inline so the entry is never dropped.
			results[i] = r.process(ctx, entry, &fallbacks)

			wg.Done()
		}
	}

	wg.Wait()

	for _, result := range results {
		if result.MediaURL == "" {
			// The resolver contract forbids this; guard anyway.
			return nil, fmt.Errorf("resolver produced empty media URL for %q", result.Name)
		}
	}

	r.log.WithFields(logrus.Fields{
		"entries":   len(results),
		"fallbacks": fallbacks.Load(),
	}).Info("Resolved all source entries")

	return results, nil
}

func (r *Runner) process(ctx context.Context, entry source.Entry, fallbacks *atomic.Int64) playlist.Entry {
	stream := r.resolver.Resolve(ctx, entry)

	if stream.Fallback {
		fallbacks.Add(1)
	}

	result := playlist.Entry{
		Name:     stream.Title,
		MediaURL: stream.MediaURL,
		TVGLogo:  stream.ThumbnailURL,
		Group:    entry.Category,
	}

	if r.reconciler == nil {
		return result
	}

	match := r.reconciler.Reconcile(stream.Title)
	if !match.Matched() {
		return result
	}

	result.Name = match.DisplayName
	result.TVGID = match.GuideID

	if match.LogoURL != "" {
		result.TVGLogo = match.LogoURL
	}

	r.log.WithFields(logrus.Fields{
		"title":   stream.Title,
		"channel": match.DisplayName,
		"guideID": match.GuideID,
		"tier":    match.Tier.String(),
	}).Debug("Reconciled stream title against guide")

	return result
}
