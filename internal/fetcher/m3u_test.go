package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-name="beIN 1" tvg-logo="http://logo.example.com/1.png" group-title="Sports",beIN Sports 1
http://stream.example.com/bein1.m3u8
#EXTINF:-1 group-title="Sports",beIN Sports 2
http://stream.example.com/bein2.m3u8
#EXTINF:-1 tvg-name="News 24",News channel display text
http://stream.example.com/news.m3u8
`

func TestParseM3U(t *testing.T) {
	entries, err := ParseM3U(strings.NewReader(samplePlaylist))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{
		Name:    "beIN 1",
		Image:   "http://logo.example.com/1.png",
		URL:     "http://stream.example.com/bein1.m3u8",
		Section: "Sports",
	}, entries[0])

	// Without tvg-name the text after the attribute comma is the name.
	assert.Equal(t, "beIN Sports 2", entries[1].Name)
	assert.Empty(t, entries[1].Image)

	// tvg-name wins over the comma text.
	assert.Equal(t, "News 24", entries[2].Name)
	assert.Empty(t, entries[2].Section)
}

func TestParseM3USkipsMalformedRows(t *testing.T) {
	playlist := `#EXTM3U
http://orphan.example.com/no-extinf.m3u8
#EXTINF:-1 tvg-logo="http://logo.example.com/x.png"
http://stream.example.com/nameless.m3u8
#EXTINF:-1,Good Channel
http://stream.example.com/good.m3u8
`
	entries, err := ParseM3U(strings.NewReader(playlist))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good Channel", entries[0].Name)
}

func TestParseM3UEmptyInput(t *testing.T) {
	entries, err := ParseM3U(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseM3ULowercaseDirective(t *testing.T) {
	playlist := "#extinf:-1,Lower Case\nhttp://stream.example.com/lc.m3u8\n"
	entries, err := ParseM3U(strings.NewReader(playlist))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Lower Case", entries[0].Name)
}
