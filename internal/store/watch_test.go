package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aseeltv/channelguide/internal/models"
)

// flakyStore answers Ping successfully only from the Nth call on.
type flakyStore struct {
	calls   int
	okAfter int
}

func (f *flakyStore) Ping(context.Context) error {
	f.calls++
	if f.calls >= f.okAfter {
		return nil
	}
	return errors.New("not yet")
}

func (f *flakyStore) ListSections(context.Context, bool) ([]models.Section, error) { return nil, nil }
func (f *flakyStore) ListChannels(context.Context) ([]models.Channel, error)       { return nil, nil }
func (f *flakyStore) CreateSection(context.Context, models.Section) (string, error) {
	return "", nil
}
func (f *flakyStore) UpdateSection(context.Context, string, SectionUpdate) error { return nil }
func (f *flakyStore) DeleteSection(context.Context, string) error                { return nil }
func (f *flakyStore) CreateChannel(context.Context, models.Channel) (string, error) {
	return "", nil
}
func (f *flakyStore) UpdateChannel(context.Context, string, ChannelUpdate) error { return nil }
func (f *flakyStore) DeleteChannel(context.Context, string) error                { return nil }
func (f *flakyStore) WatchSections(context.Context, func([]models.Section), func(error)) (func(), error) {
	return func() {}, nil
}
func (f *flakyStore) WatchChannels(context.Context, func([]models.Channel), func(error)) (func(), error) {
	return func() {}, nil
}
func (f *flakyStore) ProbeWrite(context.Context) error { return nil }
func (f *flakyStore) Close()                           {}

func TestWaitReadyImmediate(t *testing.T) {
	st := &flakyStore{okAfter: 1}
	assert.True(t, WaitReady(context.Background(), st, 5, time.Millisecond))
	assert.Equal(t, 1, st.calls)
}

func TestWaitReadyEventually(t *testing.T) {
	st := &flakyStore{okAfter: 3}
	assert.True(t, WaitReady(context.Background(), st, 5, time.Millisecond))
	assert.Equal(t, 3, st.calls)
}

func TestWaitReadyGivesUp(t *testing.T) {
	st := &flakyStore{okAfter: 100}
	assert.False(t, WaitReady(context.Background(), st, 3, time.Millisecond))
	assert.Equal(t, 3, st.calls)
}

func TestWaitReadyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := &flakyStore{okAfter: 100}
	assert.False(t, WaitReady(ctx, st, 50, 10*time.Millisecond))
	assert.Equal(t, 1, st.calls)
}
