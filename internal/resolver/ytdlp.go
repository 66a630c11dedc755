package resolver

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fakuz/Streamtom3u/internal/source"
)

// DefaultYTDLPBinary is the external extraction tool invoked when API
// and scrape strategies fail.
const DefaultYTDLPBinary = "yt-dlp"

// YTDLP resolves sources by invoking the external extraction tool. One
// combined invocation returns title, thumbnail, and media URL so tests
// can substitute a fake resolver without spawning processes.
type YTDLP struct {
	log         logrus.FieldLogger
	binary      string
	maxHeight   int
	cookiesPath string
}

// NewYTDLP creates the extraction tool strategy. cookiesPath is
// optional authentication material passed straight to the tool.
func NewYTDLP(log logrus.FieldLogger, binary string, maxHeight int, cookiesPath string) *YTDLP {
	if binary == "" {
		binary = DefaultYTDLPBinary
	}

	return &YTDLP{
		log:         log.WithField("strategy", "ytdlp"),
		binary:      binary,
		maxHeight:   maxHeight,
		cookiesPath: cookiesPath,
	}
}

// Name implements Strategy.
func (y *YTDLP) Name() string {
	return "ytdlp"
}

// FormatSelector returns the tool's format expression capped at the
// configured height.
func (y *YTDLP) FormatSelector() string {
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", y.maxHeight)
}

// Resolve implements Strategy. The context bounds the process runtime;
// a timed-out invocation is killed and reported as a failure.
func (y *YTDLP) Resolve(ctx context.Context, entry source.Entry, attempt Attempt) (*Stream, error) {
	args := []string{
		"-f", y.FormatSelector(),
		"--no-warnings",
		"--no-playlist",
		"--print", "%(title)s",
		"--print", "%(thumbnail)s",
		"--print", "%(url)s",
	}

	if attempt.ProxyURL != "" {
		args = append(args, "--proxy", attempt.ProxyURL)
	}

	if y.cookiesPath != "" {
		args = append(args, "--cookies", y.cookiesPath)
	}

	args = append(args, entry.URL)

	y.log.WithField("url", entry.URL).Debug("Invoking extraction tool")

	output, err := exec.CommandContext(ctx, y.binary, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("extraction tool failed: %w", err)
	}

	return parseYTDLPOutput(string(output))
}

// parseYTDLPOutput splits the combined --print output: title first,
// thumbnail second, then one or more media URLs (the first is used).
func parseYTDLPOutput(output string) (*Stream, error) {
	lines := make([]string, 0, 4)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 3 {
		return nil, fmt.Errorf("unexpected extraction tool output: %d lines", len(lines))
	}

	stream := &Stream{
		Title:        naToEmpty(lines[0]),
		ThumbnailURL: naToEmpty(lines[1]),
		MediaURL:     lines[2],
	}

	if stream.MediaURL == "" || stream.MediaURL == "NA" {
		return nil, fmt.Errorf("extraction tool returned no media URL")
	}

	return stream, nil
}

// naToEmpty maps the tool's "NA" placeholder to an empty field.
func naToEmpty(s string) string {
	if s == "NA" {
		return ""
	}

	return s
}
