package cache

import (
	"context"
	"sync"
	"time"
)

// Memory implements Cache in process, for deployments without Redis and
// for tests. It honors the full contract including Watch and TryLock,
// but its notifications naturally reach only the owning process.
type Memory struct {
	mu       sync.Mutex
	values   map[string]string
	locks    map[string]time.Time
	watchers map[int]chan string
	nextID   int
	closed   bool
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]string),
		locks:    make(map[string]time.Time),
		watchers: make(map[int]chan string),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

// Set stores the value and notifies watchers. Notification happens under
// the mutex so a concurrent stop cannot close a channel mid-send; the
// sends are non-blocking so this cannot deadlock.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	for _, ch := range m.watchers {
		select {
		case ch <- key:
		default: // slow consumer, drop
		}
	}
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *Memory) Watch(_ context.Context) (<-chan string, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan string, 16)
	m.watchers[id] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.watchers[id]; ok {
				delete(m.watchers, id)
				close(ch)
			}
		})
	}
	return ch, stop, nil
}

func (m *Memory) TryLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, held := m.locks[key]; held && time.Now().Before(exp) {
		return nil, ErrLocked
	}
	m.locks[key] = time.Now().Add(ttl)
	return func() {
		m.mu.Lock()
		delete(m.locks, key)
		m.mu.Unlock()
	}, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for id, ch := range m.watchers {
		delete(m.watchers, id)
		close(ch)
	}
	return nil
}
