package guide

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleGuide = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <channel id="espn.ar">
    <display-name>ESPN</display-name>
    <icon src="http://logo.example.com/espn.png"/>
  </channel>
  <channel id="cnn.us">
    <display-name>CNN International</display-name>
  </channel>
  <programme channel="espn.ar" start="20260101000000 +0000" stop="20260101010000 +0000">
    <title>SportsCenter</title>
  </programme>
</tv>`

func TestParse_Channels(t *testing.T) {
	tv, err := Parse([]byte(sampleGuide))
	require.NoError(t, err)
	require.Len(t, tv.Channels, 2)

	require.Equal(t, "espn.ar", tv.Channels[0].ID)
	require.Equal(t, "ESPN", tv.Channels[0].DisplayName)
	require.Equal(t, "http://logo.example.com/espn.png", tv.Channels[0].Icon.Src)

	require.Equal(t, "cnn.us", tv.Channels[1].ID)
	require.Equal(t, "CNN International", tv.Channels[1].DisplayName)
	require.Empty(t, tv.Channels[1].Icon.Src)
}

func TestParse_InvalidXML(t *testing.T) {
	_, err := Parse([]byte("<tv><channel"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse guide XML")
}

func TestIndex_AddAndLookup(t *testing.T) {
	index := NewIndex()

	require.True(t, index.Add(Channel{ID: "espn.ar", DisplayName: "ESPN"}))
	require.True(t, index.Add(Channel{ID: "cnn.us", DisplayName: "CNN"}))
	require.Equal(t, 2, index.Len())

	ch, ok := index.Lookup("espn.ar")
	require.True(t, ok)
	require.Equal(t, "ESPN", ch.DisplayName)

	_, ok = index.Lookup("missing")
	require.False(t, ok)
}

func TestIndex_MalformedEntriesDropped(t *testing.T) {
	index := NewIndex()

	require.False(t, index.Add(Channel{ID: "", DisplayName: "No ID"}))
	require.False(t, index.Add(Channel{ID: "no.name", DisplayName: ""}))
	require.Equal(t, 0, index.Len())
}

func TestIndex_LastWinsKeepsPosition(t *testing.T) {
	index := NewIndex()

	index.Add(Channel{ID: "espn.ar", DisplayName: "ESPN"})
	index.Add(Channel{ID: "cnn.us", DisplayName: "CNN"})
	index.Add(Channel{ID: "espn.ar", DisplayName: "ESPN Argentina", Icon: Icon{Src: "http://logo.example.com/espn2.png"}})

	require.Equal(t, 2, index.Len())

	ch, ok := index.Lookup("espn.ar")
	require.True(t, ok)
	require.Equal(t, "ESPN Argentina", ch.DisplayName)

	// Overwrite keeps the original load position.
	ordered := index.Ordered()
	require.Equal(t, "espn.ar", ordered[0].ID)
	require.Equal(t, "cnn.us", ordered[1].ID)
}

func TestIndex_AddAll(t *testing.T) {
	tv, err := Parse([]byte(sampleGuide))
	require.NoError(t, err)

	index := NewIndex()
	added := index.AddAll(tv)

	require.Equal(t, 2, added)
	require.Equal(t, 2, index.Len())
}
