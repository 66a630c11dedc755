// Package reconcile matches noisy extracted stream titles against
// canonical guide channel names.
package reconcile

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/fakuz/Streamtom3u/internal/guide"
)

// DefaultThreshold is the minimum token-sort ratio (0-100) for a fuzzy
// match to be accepted.
const DefaultThreshold = 80

// Tier identifies which matching strategy produced a result.
type Tier int

// Matching tiers, in priority order.
const (
	TierNone Tier = iota
	TierExact
	TierKeyword
	TierFuzzy
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierKeyword:
		return "keyword"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Result is the outcome of reconciling one extracted title. On a
// non-match DisplayName carries the original title and GuideID and
// LogoURL are empty; a non-match is a normal value, not an error.
type Result struct {
	DisplayName string
	GuideID     string
	LogoURL     string
	Tier        Tier
}

// Matched reports whether a guide channel was identified.
func (r Result) Matched() bool {
	return r.Tier != TierNone
}

// Config holds the matching knobs. Zero values select the defaults.
type Config struct {
	// Threshold is the minimum fuzzy score (0-100) to accept a tier-3
	// match.
	Threshold int
	// Stopwords replaces DefaultStopwords when non-empty.
	Stopwords []string
}

// candidate is a guide channel with its matching forms precomputed.
type candidate struct {
	channel   guide.Channel
	idTokens  map[string]struct{}
	normName  string
	emptyName bool
}

// Reconciler matches extracted titles against a read-only guide index.
// Safe for concurrent use once built.
type Reconciler struct {
	threshold  int
	stopwords  map[string]struct{}
	exactIDs   map[string]int
	candidates []candidate
}

// New builds a reconciler over the given index. The index must not be
// mutated afterwards. Candidate order follows guide load order so that
// tie-breaking is deterministic.
func New(index *guide.Index, cfg Config) *Reconciler {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	stopwords := cfg.Stopwords
	if len(stopwords) == 0 {
		stopwords = DefaultStopwords
	}

	r := &Reconciler{
		threshold: threshold,
		stopwords: stopwordSet(stopwords),
	}

	channels := index.Ordered()
	r.exactIDs = make(map[string]int, len(channels))
	r.candidates = make([]candidate, 0, len(channels))

	for i, ch := range channels {
		// First loaded wins on folded-ID collisions.
		key := fold(ch.ID)
		if _, exists := r.exactIDs[key]; !exists {
			r.exactIDs[key] = i
		}

		normID := normalize(ch.ID, r.stopwords)
		idTokens := make(map[string]struct{}, 4)

		for _, token := range significantTokens(normID) {
			idTokens[token] = struct{}{}
		}

		normName := normalize(ch.DisplayName, r.stopwords)

		r.candidates = append(r.candidates, candidate{
			channel:   ch,
			idTokens:  idTokens,
			normName:  normName,
			emptyName: normName == "",
		})
	}

	return r
}

// Reconcile decides whether an extracted title identifies a known guide
// channel. Tiers run in priority order and the first hit wins. Pure
// function of the title plus the reconciler's static configuration.
func (r *Reconciler) Reconcile(title string) Result {
	if matched, result := r.matchExact(title); matched {
		return result
	}

	if matched, result := r.matchKeyword(title); matched {
		return result
	}

	if matched, result := r.matchFuzzy(title); matched {
		return result
	}

	return Result{
		DisplayName: title,
		Tier:        TierNone,
	}
}

// matchExact handles titles that already encode the guide's own channel
// ID, compared case- and diacritic-insensitively.
func (r *Reconciler) matchExact(title string) (bool, Result) {
	key := strings.TrimSpace(fold(title))
	if key == "" {
		return false, Result{}
	}

	pos, ok := r.exactIDs[key]
	if !ok {
		return false, Result{}
	}

	return true, r.resultFor(r.candidates[pos].channel, TierExact)
}

// matchKeyword matches when the normalized title shares at least one
// significant token with a candidate's normalized ID. First candidate
// in guide load order wins.
func (r *Reconciler) matchKeyword(title string) (bool, Result) {
	tokens := significantTokens(normalize(title, r.stopwords))
	if len(tokens) == 0 {
		return false, Result{}
	}

	for _, cand := range r.candidates {
		for _, token := range tokens {
			if _, ok := cand.idTokens[token]; ok {
				return true, r.resultFor(cand.channel, TierKeyword)
			}
		}
	}

	return false, Result{}
}

// matchFuzzy scores the normalized title against every candidate's
// normalized canonical name with a token-order-insensitive ratio and
// accepts the single best candidate at or above the threshold. Ties go
// to the earliest loaded candidate.
func (r *Reconciler) matchFuzzy(title string) (bool, Result) {
	normTitle := normalize(title, r.stopwords)
	if normTitle == "" {
		return false, Result{}
	}

	bestScore := -1
	bestIdx := -1

	for i, cand := range r.candidates {
		if cand.emptyName {
			continue
		}

		score := fuzzy.TokenSortRatio(normTitle, cand.normName)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < r.threshold {
		return false, Result{}
	}

	return true, r.resultFor(r.candidates[bestIdx].channel, TierFuzzy)
}

func (r *Reconciler) resultFor(ch guide.Channel, tier Tier) Result {
	return Result{
		DisplayName: ch.DisplayName,
		GuideID:     ch.ID,
		LogoURL:     ch.Icon.Src,
		Tier:        tier,
	}
}
