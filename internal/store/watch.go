package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aseeltv/channelguide/internal/models"
)

// notifyChannel is the LISTEN/NOTIFY channel the catalog triggers fire
// on; the payload names the changed collection.
const notifyChannel = "catalog_changes"

const (
	watchBackoffMin = time.Second
	watchBackoffMax = 30 * time.Second
)

// WatchSections implements Store.
func (p *Postgres) WatchSections(ctx context.Context, onChange func([]models.Section), onError func(error)) (func(), error) {
	return p.watch(ctx, CollectionSections, func(ctx context.Context) error {
		list, err := p.ListSections(ctx, true)
		if err != nil {
			return err
		}
		onChange(list)
		return nil
	}, onError)
}

// WatchChannels implements Store.
func (p *Postgres) WatchChannels(ctx context.Context, onChange func([]models.Channel), onError func(error)) (func(), error) {
	return p.watch(ctx, CollectionChannels, func(ctx context.Context) error {
		list, err := p.ListChannels(ctx)
		if err != nil {
			return err
		}
		onChange(list)
		return nil
	}, onError)
}

// watch listens for change notifications for one collection and runs
// deliver (a re-query that hands the full result set to the consumer)
// after each one. The listening connection is re-established with capped
// backoff whenever it drops; a delivery also runs on every (re)connect
// so changes missed while disconnected are not lost.
func (p *Postgres) watch(ctx context.Context, collection string, deliver func(context.Context) error, onError func(error)) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)
	go func() {
		backoff := watchBackoffMin
		for {
			start := time.Now()
			err := p.listen(wctx, collection, deliver)
			if wctx.Err() != nil {
				return
			}
			if err != nil && onError != nil {
				onError(fmt.Errorf("watch %s: %w", collection, err))
			}
			// A listen that held up for a while earns a fresh backoff.
			if time.Since(start) > time.Minute {
				backoff = watchBackoffMin
			}
			select {
			case <-wctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < watchBackoffMax {
				backoff *= 2
			}
		}
	}()
	return cancel, nil
}

func (p *Postgres) listen(ctx context.Context, collection string, deliver func(context.Context) error) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if err := deliver(ctx); err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		if n.Payload != collection {
			continue
		}
		if err := deliver(ctx); err != nil {
			return fmt.Errorf("deliver: %w", err)
		}
	}
}

// WaitReady pings the store until it answers, giving up after attempts
// tries spaced interval apart. It reports whether the store became
// reachable; it never blocks past the attempt ceiling.
func WaitReady(ctx context.Context, s Store, attempts int, interval time.Duration) bool {
	for i := 0; i < attempts; i++ {
		if err := s.Ping(ctx); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
	return false
}
