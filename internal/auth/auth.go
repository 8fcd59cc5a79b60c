package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"

	"github.com/aseeltv/channelguide/internal/cache"
)

var (
	// ErrInvalidCredentials is returned by Login when the verifier
	// rejects the pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured is returned when no verifier is installed.
	ErrNotConfigured = errors.New("admin login is not configured")
)

// Verifier checks a credential pair. Implementations decide what a
// credential is; the gate only cares about the boolean.
type Verifier interface {
	Verify(ctx context.Context, identity, secret string) (bool, error)
}

// StaticVerifier compares against a single configured credential pair in
// constant time. With either field empty it rejects everything.
type StaticVerifier struct {
	Identity string
	Secret   string
}

func (v StaticVerifier) Verify(_ context.Context, identity, secret string) (bool, error) {
	if v.Identity == "" || v.Secret == "" {
		return false, nil
	}
	idOK := subtle.ConstantTimeCompare([]byte(v.Identity), []byte(identity)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(v.Secret), []byte(secret)) == 1
	return idOK && secretOK, nil
}

// Gate is the admin gate: a verifier plus a persisted authenticated
// flag. The flag lives in the shared cache so a login in one instance
// opens the admin surface everywhere, matching the cross-tab behavior
// of the catalog itself. This is deliberately not a hardened session
// model.
type Gate struct {
	verifier Verifier // nil means logins always fail
	cache    cache.Cache
}

// NewGate builds a gate. verifier may be nil to disable admin login.
func NewGate(verifier Verifier, c cache.Cache) *Gate {
	return &Gate{verifier: verifier, cache: c}
}

// Login verifies the pair and, on success, persists the authenticated
// flag and the identity.
func (g *Gate) Login(ctx context.Context, identity, secret string) error {
	if g.verifier == nil {
		return ErrNotConfigured
	}
	ok, err := g.verifier.Verify(ctx, identity, secret)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if err := g.cache.Set(ctx, cache.KeyAdminAuth, "true"); err != nil {
		return fmt.Errorf("persist auth flag: %w", err)
	}
	if err := g.cache.Set(ctx, cache.KeyAdminIdentity, identity); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}

// Logout clears the persisted login state.
func (g *Gate) Logout(ctx context.Context) error {
	return g.cache.Del(ctx, cache.KeyAdminAuth, cache.KeyAdminIdentity)
}

// Authenticated reports whether an admin login is in effect.
func (g *Gate) Authenticated(ctx context.Context) bool {
	v, err := g.cache.Get(ctx, cache.KeyAdminAuth)
	if err != nil {
		if err != cache.ErrMiss {
			log.Printf("auth: read flag: %v", err)
		}
		return false
	}
	return v == "true"
}

// Identity returns the logged-in identity, or "".
func (g *Gate) Identity(ctx context.Context) string {
	v, err := g.cache.Get(ctx, cache.KeyAdminIdentity)
	if err != nil {
		return ""
	}
	return v
}
