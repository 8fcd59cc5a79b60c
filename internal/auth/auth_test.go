package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseeltv/channelguide/internal/cache"
)

func TestStaticVerifier(t *testing.T) {
	tests := []struct {
		name     string
		verifier StaticVerifier
		identity string
		secret   string
		ok       bool
	}{
		{"correct pair", StaticVerifier{Identity: "admin@example.com", Secret: "s3cret"}, "admin@example.com", "s3cret", true},
		{"wrong secret", StaticVerifier{Identity: "admin@example.com", Secret: "s3cret"}, "admin@example.com", "nope", false},
		{"wrong identity", StaticVerifier{Identity: "admin@example.com", Secret: "s3cret"}, "other@example.com", "s3cret", false},
		{"empty config rejects everything", StaticVerifier{}, "", "", false},
		{"empty secret config rejects its own value", StaticVerifier{Identity: "admin@example.com"}, "admin@example.com", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ok, err := test.verifier.Verify(context.Background(), test.identity, test.secret)
			require.NoError(t, err)
			assert.Equal(t, test.ok, ok)
		})
	}
}

func TestGateLoginLogout(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	ctx := context.Background()

	gate := NewGate(StaticVerifier{Identity: "admin@example.com", Secret: "s3cret"}, m)
	assert.False(t, gate.Authenticated(ctx))

	err := gate.Login(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, gate.Authenticated(ctx))

	require.NoError(t, gate.Login(ctx, "admin@example.com", "s3cret"))
	assert.True(t, gate.Authenticated(ctx))
	assert.Equal(t, "admin@example.com", gate.Identity(ctx))

	require.NoError(t, gate.Logout(ctx))
	assert.False(t, gate.Authenticated(ctx))
	assert.Empty(t, gate.Identity(ctx))
}

func TestGateLoginSurvivesGateRestart(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()
	ctx := context.Background()

	verifier := StaticVerifier{Identity: "admin@example.com", Secret: "s3cret"}
	require.NoError(t, NewGate(verifier, m).Login(ctx, "admin@example.com", "s3cret"))

	// A fresh gate over the same cache sees the persisted login.
	fresh := NewGate(verifier, m)
	assert.True(t, fresh.Authenticated(ctx))
}

func TestGateWithoutVerifier(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()

	gate := NewGate(nil, m)
	err := gate.Login(context.Background(), "admin@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, gate.Authenticated(context.Background()))
}
