// Package source reads newline-delimited stream source lists.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// DefaultCategory is assigned to entries that do not specify one.
const DefaultCategory = "General"

// Entry is a single line of the source list: a URL with optional
// category and display name, pipe-separated.
type Entry struct {
	URL      string
	Category string
	Name     string
}

// Parse extracts entries from source list data.
// Lines are of the form `URL [| CATEGORY [| NAME]]`. Blank lines and
// lines starting with "##" are skipped. Missing fields get defaults;
// no line is ever rejected.
func Parse(data []byte) ([]Entry, error) {
	entries := make([]Entry, 0, 50)
	scanner := bufio.NewScanner(bytes.NewReader(data))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}

		entries = append(entries, parseLine(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning source list: %w", err)
	}

	return entries, nil
}

// Load reads and parses a source list file.
// A missing or unreadable file is the only fatal condition of a run.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source list %q: %w", path, err)
	}

	return Parse(data)
}

func parseLine(line string) Entry {
	parts := strings.Split(line, "|")

	entry := Entry{
		URL:      strings.TrimSpace(parts[0]),
		Category: DefaultCategory,
	}

	if len(parts) > 1 {
		if category := strings.TrimSpace(parts[1]); category != "" {
			entry.Category = category
		}
	}

	if len(parts) > 2 {
		entry.Name = strings.TrimSpace(parts[2])
	}

	return entry
}
