package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Persisted keys. The two snapshot keys mirror the last known-good
// catalog; the admin keys hold the persisted login state.
const (
	KeySections      = "guide:sections"
	KeyChannels      = "guide:channels"
	KeyAdminAuth     = "guide:admin:auth"
	KeyAdminIdentity = "guide:admin:identity"

	// KeySyncLock guards the manual catalog sync.
	KeySyncLock = "guide:sync:lock"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

// Cache is the catalog's key/value mirror. Values are whole-list JSON
// replacements, so no locking discipline is needed beyond last-write-wins.
// Watch delivers the key of every Set, including sets performed by other
// processes sharing the same backend; this is how an admin edit in one
// instance becomes visible in every other one.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	// Watch returns a channel of changed keys and a stop function that
	// releases the subscription and closes the channel.
	Watch(ctx context.Context) (<-chan string, func(), error)
	// TryLock acquires a named lock with a TTL. On success it returns an
	// unlock function that MUST be called (typically via defer). If the
	// lock is already held, ErrLocked is returned.
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON fetches a key and JSON-unmarshals the value into T.
// Returns ErrMiss when the key does not exist.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var zero T
	raw, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return v, nil
}

// SetJSON JSON-marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return c.Set(ctx, key, string(data))
}
