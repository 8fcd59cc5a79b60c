package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDel(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Del(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryWatchDeliversChangedKeys(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	events, stop, err := m.Watch(ctx)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, m.Set(ctx, KeySections, "[]"))

	select {
	case key := <-events:
		assert.Equal(t, KeySections, key)
	case <-time.After(time.Second):
		t.Fatal("no watch event delivered")
	}
}

func TestMemoryWatchStopIsIdempotent(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	_, stop, err := m.Watch(context.Background())
	require.NoError(t, err)
	stop()
	stop() // second call must not panic
}

func TestMemoryTryLock(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	unlock, err := m.TryLock(ctx, KeySyncLock, time.Minute)
	require.NoError(t, err)

	_, err = m.TryLock(ctx, KeySyncLock, time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	unlock2, err := m.TryLock(ctx, KeySyncLock, time.Minute)
	require.NoError(t, err)
	unlock2()
}

func TestMemoryTryLockExpires(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	_, err := m.TryLock(ctx, KeySyncLock, 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	unlock, err := m.TryLock(ctx, KeySyncLock, time.Minute)
	require.NoError(t, err)
	unlock()
}

func TestJSONRoundtrip(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, SetJSON(ctx, m, "k", payload{Name: "x", Count: 3}))

	got, err := GetJSON[payload](ctx, m, "k")
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "x", Count: 3}, got)

	_, err = GetJSON[payload](ctx, m, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	// Corrupt entries surface as unmarshal errors, not ErrMiss.
	require.NoError(t, m.Set(ctx, "bad", "{not json"))
	_, err = GetJSON[payload](ctx, m, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
