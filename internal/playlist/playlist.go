// Package playlist renders and parses M3U playlist documents.
package playlist

import (
	"fmt"
	"strings"
)

// Entry is one playlist item: an EXTINF metadata line plus the resolved
// media URL.
type Entry struct {
	Name     string
	MediaURL string
	TVGID    string
	TVGLogo  string
	Group    string
}

// Slug derives a tvg-id from a title for entries without a guide match:
// lowercased with spaces removed.
func Slug(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", ""))
}

// Render serializes entries into an M3U document. The header carries a
// url-tvg attribute listing the guide URLs when any are configured.
// Output is byte-identical for identical inputs.
func Render(entries []Entry, guideURLs []string) string {
	var sb strings.Builder

	if len(guideURLs) > 0 {
		sb.WriteString(fmt.Sprintf("#EXTM3U url-tvg=%q\n", strings.Join(guideURLs, ",")))
	} else {
		sb.WriteString("#EXTM3U\n")
	}

	for _, entry := range entries {
		tvgID := entry.TVGID
		if tvgID == "" {
			tvgID = Slug(entry.Name)
		}

		sb.WriteString(fmt.Sprintf("#EXTINF:-1 tvg-id=%q", tvgID))

		if entry.TVGLogo != "" {
			sb.WriteString(fmt.Sprintf(" tvg-logo=%q", entry.TVGLogo))
		}

		sb.WriteString(fmt.Sprintf(" group-title=%q,%s\n", entry.Group, entry.Name))
		sb.WriteString(entry.MediaURL + "\n")
	}

	return sb.String()
}
