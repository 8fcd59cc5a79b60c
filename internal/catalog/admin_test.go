package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/models"
	"github.com/aseeltv/channelguide/internal/store"
)

func strPtr(s string) *string { return &s }

func TestCreateSectionThroughStore(t *testing.T) {
	st := &fakeStore{}
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, st, m)

	id, err := l.CreateSection(context.Background(), models.Section{Name: "Tennis"})
	require.NoError(t, err)
	assert.Equal(t, "gen-section", id)

	// The loader requeried the store, so the new section is visible.
	_, ok := l.Section(id)
	assert.True(t, ok)
}

func TestCreateSectionFallsBackToCache(t *testing.T) {
	st := &fakeStore{writeErr: errors.New("connection refused")}
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, st, m)

	id, err := l.CreateSection(context.Background(), models.Section{Name: "Tennis"})
	require.NoError(t, err)
	require.NotEmpty(t, id) // synthesized locally

	_, ok := l.Section(id)
	assert.True(t, ok)

	// The offline write landed in the shared cache mirror.
	cached, err := cache.GetJSON[[]models.Section](context.Background(), m, cache.KeySections)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, id, cached[0].ID)
}

func TestUpdateSectionNotFound(t *testing.T) {
	st := &fakeStore{}
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, st, m)

	err := l.UpdateSection(context.Background(), "missing", store.SectionUpdate{Name: strPtr("X")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateSectionCacheFallback(t *testing.T) {
	st := &fakeStore{writeErr: errors.New("connection refused")}
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, st, m)
	l.replaceSections(context.Background(), []models.Section{{ID: "s1", Name: "Old"}}, false)

	err := l.UpdateSection(context.Background(), "s1", store.SectionUpdate{Name: strPtr("New")})
	require.NoError(t, err)

	sec, ok := l.Section("s1")
	require.True(t, ok)
	assert.Equal(t, "New", sec.Name)

	err = l.UpdateSection(context.Background(), "missing", store.SectionUpdate{Name: strPtr("X")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteChannelThroughStore(t *testing.T) {
	st := &fakeStore{channels: []models.Channel{{ID: "c1", Name: "One", SectionID: "s1"}}}
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, st, m)
	l.Load(context.Background())

	require.NoError(t, l.DeleteChannel(context.Background(), "c1"))
	_, ok := l.Channel("c1")
	assert.False(t, ok)

	assert.ErrorIs(t, l.DeleteChannel(context.Background(), "c1"), store.ErrNotFound)
}

func TestUpdateChannelCacheFallback(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, nil, m) // no store at all
	l.replaceChannels(context.Background(), []models.Channel{
		{ID: "c1", Name: "One", URL: "#", SectionID: "s1"},
	}, false)

	err := l.UpdateChannel(context.Background(), "c1", store.ChannelUpdate{
		URL: strPtr("http://stream.example.com/one.m3u8"),
	})
	require.NoError(t, err)

	ch, ok := l.Channel("c1")
	require.True(t, ok)
	assert.True(t, ch.Playable())
}

func TestAdminWritesNotifySubscribers(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	l := newTestLoader(t, nil, m)

	var fired []Collection
	remove := l.OnUpdate(func(col Collection) { fired = append(fired, col) })
	defer remove()

	_, err := l.CreateSection(context.Background(), models.Section{Name: "Tennis"})
	require.NoError(t, err)
	_, err = l.CreateChannel(context.Background(), models.Channel{Name: "Court 1", SectionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, []Collection{Sections, Channels}, fired)
}
