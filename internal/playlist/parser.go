package playlist

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrIncompleteEntry is returned when an #EXTINF line has no URL line.
	ErrIncompleteEntry = errors.New("found #EXTINF without URL at end of file")
	// ErrOrphanedEntry is returned when a new #EXTINF appears before the previous one has a URL.
	ErrOrphanedEntry = errors.New("found #EXTINF without URL for previous entry")
)

// Parse extracts entries from M3U playlist data.
func Parse(data []byte) ([]Entry, error) {
	entries := make([]Entry, 0, 50)
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var current *Entry

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#EXTM3U") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			if current != nil {
				return nil, ErrOrphanedEntry
			}

			current = &Entry{
				TVGID:   extractAttribute(line, "tvg-id"),
				TVGLogo: extractAttribute(line, "tvg-logo"),
				Group:   extractAttribute(line, "group-title"),
			}

			if parts := strings.SplitN(line, ",", 2); len(parts) == 2 {
				current.Name = strings.TrimSpace(parts[1])
			}
		case !strings.HasPrefix(line, "#") && current != nil:
			current.MediaURL = line
			entries = append(entries, *current)
			current = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning playlist data: %w", err)
	}

	if current != nil {
		return nil, ErrIncompleteEntry
	}

	return entries, nil
}

func extractAttribute(line, attr string) string {
	pattern := fmt.Sprintf(`%s="([^"]*)"`, regexp.QuoteMeta(attr))
	matches := regexp.MustCompile(pattern).FindStringSubmatch(line)

	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}
