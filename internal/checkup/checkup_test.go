package checkup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aseeltv/channelguide/internal/auth"
	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/models"
	"github.com/aseeltv/channelguide/internal/store"
)

// probeStore implements store.Store with configurable ping/probe errors.
// The catalog methods are never exercised by the checker.
type probeStore struct {
	pingErr  error
	probeErr error
}

func (p *probeStore) ListSections(context.Context, bool) ([]models.Section, error) { return nil, nil }
func (p *probeStore) ListChannels(context.Context) ([]models.Channel, error)       { return nil, nil }
func (p *probeStore) CreateSection(context.Context, models.Section) (string, error) {
	return "", nil
}
func (p *probeStore) UpdateSection(context.Context, string, store.SectionUpdate) error { return nil }
func (p *probeStore) DeleteSection(context.Context, string) error                      { return nil }
func (p *probeStore) CreateChannel(context.Context, models.Channel) (string, error) {
	return "", nil
}
func (p *probeStore) UpdateChannel(context.Context, string, store.ChannelUpdate) error { return nil }
func (p *probeStore) DeleteChannel(context.Context, string) error                      { return nil }
func (p *probeStore) WatchSections(context.Context, func([]models.Section), func(error)) (func(), error) {
	return func() {}, nil
}
func (p *probeStore) WatchChannels(context.Context, func([]models.Channel), func(error)) (func(), error) {
	return func() {}, nil
}
func (p *probeStore) Ping(context.Context) error       { return p.pingErr }
func (p *probeStore) ProbeWrite(context.Context) error { return p.probeErr }
func (p *probeStore) Close()                           {}

func TestCheckAllHealthy(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	verifier := auth.StaticVerifier{Identity: "a", Secret: "b"}

	report := New(&probeStore{}, m, verifier).CheckAll(context.Background())

	assert.True(t, report.Healthy())
	assert.Equal(t, StatusOK, report[ComponentStore].Status)
	assert.Equal(t, StatusOK, report[ComponentStoreWrite].Status)
	assert.Equal(t, StatusOK, report[ComponentCache].Status)
	assert.Equal(t, StatusOK, report[ComponentAuth].Status)
}

func TestCheckAllWithoutStoreIsWarningNotError(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()

	report := New(nil, m, nil).CheckAll(context.Background())

	// A deliberately cache-only deployment is degraded, not broken.
	assert.True(t, report.Healthy())
	assert.Equal(t, StatusWarning, report[ComponentStore].Status)
	assert.Equal(t, StatusSkipped, report[ComponentStoreWrite].Status)
	assert.Equal(t, StatusWarning, report[ComponentAuth].Status)
}

func TestCheckAllWithNothingConfigured(t *testing.T) {
	// The bare deployment: no database, no Redis, no admin credentials.
	// The report must still come back component by component.
	report := New(nil, nil, nil).CheckAll(context.Background())

	assert.True(t, report.Healthy())
	assert.Equal(t, StatusWarning, report[ComponentStore].Status)
	assert.Equal(t, StatusWarning, report[ComponentCache].Status)
	assert.Equal(t, StatusWarning, report[ComponentAuth].Status)
	assert.Equal(t, StatusSkipped, report[ComponentStoreWrite].Status)
}

func TestCheckStoreUnreachable(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	st := &probeStore{pingErr: errors.New("dial tcp: connection refused")}

	report := New(st, m, nil).CheckAll(context.Background())

	assert.False(t, report.Healthy())
	assert.Equal(t, StatusError, report[ComponentStore].Status)
	assert.Contains(t, report[ComponentStore].Message, "store unreachable")
	// Write probe is pointless when the store does not even answer.
	assert.Equal(t, StatusSkipped, report[ComponentStoreWrite].Status)
}

func TestCheckStoreWritePermissionDenied(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	st := &probeStore{probeErr: errors.New("pq: permission denied for table connection_probe")}

	report := New(st, m, nil).CheckAll(context.Background())

	assert.False(t, report.Healthy())
	assert.Equal(t, StatusOK, report[ComponentStore].Status)
	assert.Equal(t, StatusError, report[ComponentStoreWrite].Status)
	assert.Contains(t, report[ComponentStoreWrite].Message, "permission denied")
}
