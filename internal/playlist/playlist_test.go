package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_Header(t *testing.T) {
	result := Render(nil, nil)
	require.Equal(t, "#EXTM3U\n", result)
}

func TestRender_HeaderWithGuideURLs(t *testing.T) {
	result := Render(nil, []string{"http://example.com/epg.xml", "http://example.com/epg2.xml.gz"})
	require.Equal(t, "#EXTM3U url-tvg=\"http://example.com/epg.xml,http://example.com/epg2.xml.gz\"\n", result)
}

func TestRender_Entry(t *testing.T) {
	entries := []Entry{
		{
			Name:     "ESPN",
			MediaURL: "https://cdn.example.com/espn/index.m3u8",
			TVGID:    "espn.ar",
			TVGLogo:  "http://logo.example.com/espn.png",
			Group:    "Sports",
		},
	}

	result := Render(entries, nil)

	require.Contains(t, result, `#EXTINF:-1 tvg-id="espn.ar" tvg-logo="http://logo.example.com/espn.png" group-title="Sports",ESPN`)
	require.Contains(t, result, "https://cdn.example.com/espn/index.m3u8\n")
}

func TestRender_SlugTVGIDWhenUnmatched(t *testing.T) {
	entries := []Entry{
		{
			Name:     "Random Local Channel 7",
			MediaURL: "https://cdn.example.com/local7/index.m3u8",
			Group:    "General",
		},
	}

	result := Render(entries, nil)

	require.Contains(t, result, `tvg-id="randomlocalchannel7"`)
	require.NotContains(t, result, "tvg-logo")
}

func TestRender_Deterministic(t *testing.T) {
	entries := []Entry{
		{Name: "One", MediaURL: "http://example.com/1", Group: "A"},
		{Name: "Two", MediaURL: "http://example.com/2", Group: "B", TVGLogo: "http://logo.example.com/2.png"},
	}

	first := Render(entries, []string{"http://example.com/epg.xml"})
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Render(entries, []string{"http://example.com/epg.xml"}))
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"ESPN", "espn"},
		{"Random Local Channel 7", "randomlocalchannel7"},
		{"A&E Network", "a&enetwork"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, Slug(tt.title))
	}
}

func TestParse_RenderRoundTrip(t *testing.T) {
	original := []Entry{
		{
			Name:     "ESPN",
			MediaURL: "https://cdn.example.com/espn/index.m3u8",
			TVGID:    "espn.ar",
			TVGLogo:  "http://logo.example.com/espn.png",
			Group:    "Sports",
		},
		{
			Name:     "Local 7",
			MediaURL: "https://cdn.example.com/local7/index.m3u8",
			Group:    "General",
		},
	}

	parsed, err := Parse([]byte(Render(original, []string{"http://example.com/epg.xml"})))
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	for i := range original {
		require.Equal(t, original[i].Name, parsed[i].Name)
		require.Equal(t, original[i].MediaURL, parsed[i].MediaURL)
		require.Equal(t, original[i].Group, parsed[i].Group)
		require.Equal(t, original[i].TVGLogo, parsed[i].TVGLogo)
	}
}

func TestParse_ErrIncompleteEntry(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="one",One
http://example.com/1
#EXTINF:-1 tvg-id="two",Two`

	_, err := Parse([]byte(input))
	require.ErrorIs(t, err, ErrIncompleteEntry)
}

func TestParse_ErrOrphanedEntry(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="one",One
#EXTINF:-1 tvg-id="two",Two
http://example.com/2`

	_, err := Parse([]byte(input))
	require.ErrorIs(t, err, ErrOrphanedEntry)
}

func TestParse_SpecialCharacters(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="tele.ch" group-title="Europa",Télé Zürich
http://example.com/zurich`

	entries, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Télé Zürich", entries[0].Name)
}

func TestParse_EmptyLinesIgnored(t *testing.T) {
	input := strings.Join([]string{
		"#EXTM3U",
		"",
		`#EXTINF:-1 tvg-id="one",One`,
		"",
		"http://example.com/1",
		"",
	}, "\n")

	entries, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
