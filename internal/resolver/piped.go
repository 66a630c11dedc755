package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/fakuz/Streamtom3u/internal/source"
)

// mirrorRequestsPerSecond paces API mirror lookups so a large source
// list does not hammer public instances.
const mirrorRequestsPerSecond = 5

var videoIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/)([A-Za-z0-9_-]{6,})`)

// PipedAPI resolves YouTube sources through Piped-style API mirrors:
// GET <mirror>/streams/<videoID> returns JSON with an hls manifest URL,
// a title, and a thumbnail.
type PipedAPI struct {
	log      logrus.FieldLogger
	mirrors  []string
	limiter  ratelimit.Limiter
	lastGood atomic.Value // mirror base URL that most recently succeeded
}

// NewPipedAPI creates the API mirror strategy.
func NewPipedAPI(log logrus.FieldLogger, mirrors []string) *PipedAPI {
	return &PipedAPI{
		log:     log.WithField("strategy", "piped"),
		mirrors: mirrors,
		limiter: ratelimit.New(mirrorRequestsPerSecond),
	}
}

// Name implements Strategy.
func (p *PipedAPI) Name() string {
	return "piped"
}

type streamsResponse struct {
	HLS          string `json:"hls"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Resolve implements Strategy. Mirrors are tried with the last known
// good one first; the hint is best-effort and may be stale, which only
// costs an extra request.
func (p *PipedAPI) Resolve(ctx context.Context, entry source.Entry, attempt Attempt) (*Stream, error) {
	videoID, ok := ExtractVideoID(entry.URL)
	if !ok {
		return nil, ErrNotApplicable
	}

	var lastErr error

	for _, mirror := range p.orderedMirrors() {
		stream, err := p.query(ctx, attempt.Client, mirror, videoID)
		if err != nil {
			p.log.WithError(err).WithField("mirror", mirror).Debug("Mirror lookup failed")
			lastErr = err

			continue
		}

		p.lastGood.Store(mirror)

		return stream, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no API mirrors configured")
	}

	return nil, fmt.Errorf("all API mirrors failed: %w", lastErr)
}

func (p *PipedAPI) orderedMirrors() []string {
	hint, _ := p.lastGood.Load().(string)
	if hint == "" {
		return p.mirrors
	}

	ordered := make([]string, 0, len(p.mirrors))
	ordered = append(ordered, hint)

	for _, mirror := range p.mirrors {
		if mirror != hint {
			ordered = append(ordered, mirror)
		}
	}

	return ordered
}

func (p *PipedAPI) query(ctx context.Context, client *http.Client, mirror, videoID string) (*Stream, error) {
	p.limiter.Take()

	url := strings.TrimSuffix(mirror, "/") + "/streams/" + videoID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode streams response: %w", err)
	}

	if parsed.HLS == "" {
		return nil, errors.New("streams response has no hls manifest")
	}

	return &Stream{
		MediaURL:     parsed.HLS,
		Title:        parsed.Title,
		ThumbnailURL: parsed.ThumbnailURL,
	}, nil
}

// ExtractVideoID pulls the video identifier out of a YouTube watch or
// short URL.
func ExtractVideoID(url string) (string, bool) {
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return "", false
	}

	matches := videoIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", false
	}

	return matches[1], true
}
