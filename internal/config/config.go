// Package config provides configuration for the playlist generator.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	// Files
	InputPath  string
	OutputPath string

	// Guide
	GuideURL  string // comma-separated guide document URLs
	Threshold int    // fuzzy match floor, 0-100

	// Resolution
	FallbackURL string
	Mirrors     string // comma-separated API mirror base URLs
	YTDLPPath   string
	CookiesPath string
	ProxiesPath string
	MaxHeight   int
	Attempts    int

	// Execution
	Workers  int
	Timeout  time.Duration
	LogLevel string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		InputPath:   "links.txt",
		OutputPath:  "streams.m3u",
		Threshold:   80,
		FallbackURL: "https://raw.githubusercontent.com/fakuz/Streamtom3u/refs/heads/main/fallback/fallback.m3u8",
		Mirrors:     "https://piped.video",
		YTDLPPath:   "yt-dlp",
		MaxHeight:   1080,
		Attempts:    3,
		Workers:     10,
		Timeout:     15 * time.Second,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("--input is required")
	}

	if c.OutputPath == "" {
		return errors.New("--output is required")
	}

	if c.FallbackURL == "" {
		return errors.New("--fallback is required")
	}

	if _, err := url.Parse(c.FallbackURL); err != nil {
		return fmt.Errorf("invalid fallback URL: %w", err)
	}

	for i, guideURL := range c.GuideURLs() {
		if _, err := url.Parse(guideURL); err != nil {
			return fmt.Errorf("invalid guide URL at position %d: %w", i+1, err)
		}
	}

	for i, mirror := range c.MirrorURLs() {
		if _, err := url.Parse(mirror); err != nil {
			return fmt.Errorf("invalid mirror URL at position %d: %w", i+1, err)
		}
	}

	if c.Workers < 1 {
		return errors.New("worker count must be at least 1")
	}

	if c.Attempts < 1 {
		return errors.New("attempt count must be at least 1")
	}

	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if c.Threshold < 1 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be between 1 and 100, got %d", c.Threshold)
	}

	if c.MaxHeight < 1 {
		return errors.New("max height must be at least 1")
	}

	return nil
}

// GuideURLs returns the list of guide document URLs (comma-separated in
// GuideURL). Empty when no guide is configured.
func (c *Config) GuideURLs() []string {
	return splitList(c.GuideURL)
}

// MirrorURLs returns the list of API mirror base URLs.
func (c *Config) MirrorURLs() []string {
	return splitList(c.Mirrors)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}

	return result
}
