package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/catalog"
)

const playlist = `#EXTM3U
#EXTINF:-1 tvg-name="beIN 1" tvg-logo="http://logo.example.com/1.png" group-title="Sports",beIN 1
http://stream.example.com/bein1.m3u8
#EXTINF:-1 tvg-name="beIN 2" group-title="Sports",beIN 2
http://stream.example.com/bein2.m3u8
#EXTINF:-1 tvg-name="News 24" group-title="News",News 24
http://stream.example.com/news.m3u8
`

func playlistServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newImportLoader(t *testing.T) *catalog.Loader {
	t.Helper()
	m := cache.NewMemory()
	t.Cleanup(func() { m.Close() })
	l := catalog.New(nil, m, catalog.Options{RefreshInterval: time.Hour})
	t.Cleanup(l.Close)
	return l
}

func TestImportCreatesSectionsFromGroups(t *testing.T) {
	srv := playlistServer(t, playlist)
	l := newImportLoader(t)

	sections, channels, err := Import(context.Background(), l, srv.URL, "", "test-agent", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, sections)
	assert.Equal(t, 3, channels)

	got := l.Sections()
	require.Len(t, got, 2)
	assert.Equal(t, "Sports", got[0].Name)
	assert.Equal(t, "News", got[1].Name)

	sports := l.ChannelsBySection(got[0].ID)
	require.Len(t, sports, 2)
	assert.Equal(t, "beIN 1", sports[0].Name)
	assert.Equal(t, "http://logo.example.com/1.png", sports[0].Image)
	assert.True(t, sports[0].Playable())
}

func TestImportIntoFixedSection(t *testing.T) {
	srv := playlistServer(t, playlist)
	l := newImportLoader(t)

	sections, channels, err := Import(context.Background(), l, srv.URL, "Everything", "", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, sections)
	assert.Equal(t, 3, channels)

	got := l.Sections()
	require.Len(t, got, 1)
	assert.Equal(t, "Everything", got[0].Name)
	assert.Len(t, l.ChannelsBySection(got[0].ID), 3)
}

func TestImportIsIdempotent(t *testing.T) {
	srv := playlistServer(t, playlist)
	l := newImportLoader(t)

	_, _, err := Import(context.Background(), l, srv.URL, "", "", 5*time.Second)
	require.NoError(t, err)

	// Re-importing the same playlist updates in place, no duplicates.
	sections, channels, err := Import(context.Background(), l, srv.URL, "", "", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, sections)
	assert.Equal(t, 3, channels)

	got := l.Sections()
	require.Len(t, got, 2)
	assert.Len(t, l.ChannelsBySection(got[0].ID), 2)
}

func TestImportEmptyPlaylist(t *testing.T) {
	srv := playlistServer(t, "#EXTM3U\n")
	l := newImportLoader(t)

	_, _, err := Import(context.Background(), l, srv.URL, "", "", 5*time.Second)
	assert.Error(t, err)
}

func TestImportUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	l := newImportLoader(t)

	_, _, err := Import(context.Background(), l, srv.URL, "", "", 5*time.Second)
	assert.Error(t, err)
}
