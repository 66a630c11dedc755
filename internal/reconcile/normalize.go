package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopwords are broadcast-quality markers and filler words
// stripped before matching. Channel names carry these inconsistently
// between stream sources and guide documents.
var DefaultStopwords = []string{
	"hd", "fhd", "uhd", "sd", "4k", "8k",
	"live", "en", "vivo", "directo", "online",
	"tv", "canal", "channel", "stream", "streaming",
	"official", "oficial", "24h",
}

var (
	resolutionTag = regexp.MustCompile(`^\d{3,4}p$`)
	yearTag       = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// fold lowercases and strips diacritics ("Télé" -> "tele").
func fold(s string) string {
	// The transform chain buffers internally, so build one per call
	// rather than sharing across worker goroutines.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(folded)
}

// normalize folds the input, collapses non-alphanumeric runs to single
// spaces, and drops stopwords, resolution tags, and year substrings.
// Normalizing an already-normalized string yields the same string.
func normalize(s string, stopwords map[string]struct{}) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}

		return ' '
	}, fold(s))

	tokens := strings.Fields(mapped)
	kept := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if _, stop := stopwords[token]; stop {
			continue
		}

		if resolutionTag.MatchString(token) || yearTag.MatchString(token) {
			continue
		}

		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}

// significantTokens returns the normalized tokens long enough to carry
// matching signal on their own.
func significantTokens(normalized string) []string {
	tokens := strings.Fields(normalized)
	significant := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if len(token) >= 3 {
			significant = append(significant, token)
		}
	}

	return significant
}

func stopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))

	for _, w := range words {
		set[fold(w)] = struct{}{}
	}

	return set
}
