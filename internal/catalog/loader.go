package catalog

import (
	"context"
	"log"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/models"
	"github.com/aseeltv/channelguide/internal/store"
)

// Collection tags which half of the catalog an update touched, so a
// consumer can re-render incrementally.
type Collection string

const (
	Sections Collection = "sections"
	Channels Collection = "channels"
)

// UpdateFunc receives the tag of a collection whose in-memory list
// changed.
type UpdateFunc func(Collection)

// Options tunes a Loader.
type Options struct {
	// RefreshInterval is the period of the cache re-read safety net.
	// Defaults to 15s.
	RefreshInterval time.Duration
}

// Loader owns the in-memory catalog snapshot and keeps it fed from the
// best available source: the remote store when reachable, the cache
// mirror otherwise, built-in defaults as the terminal fallback. It is
// safe for concurrent use; every write is a whole-list replacement, so
// racing refresh paths resolve to last-writer-wins per collection.
type Loader struct {
	store store.Store // nil when the remote store is not configured
	cache cache.Cache

	mu       sync.Mutex
	sections []models.Section
	channels []models.Channel
	watching bool     // remote watchers registered
	stops    []func() // remote watcher stops

	subMu   sync.Mutex
	subs    map[int]UpdateFunc
	nextSub int

	refreshEvery time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	done    sync.WaitGroup
}

// New constructs a Loader. st may be nil (remote store disabled); c is
// required. Call Load to populate, Start for the refresh machinery, and
// Close on teardown.
func New(st store.Store, c cache.Cache, opts Options) *Loader {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		store:        st,
		cache:        c,
		subs:         make(map[int]UpdateFunc),
		refreshEvery: opts.RefreshInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// OnUpdate registers a callback invoked with the tag of each collection
// that changes. The returned function removes the registration.
func (l *Loader) OnUpdate(fn UpdateFunc) func() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		delete(l.subs, id)
	}
}

// Load runs the source cascade. It cannot fail: every error degrades to
// the next tier, and the defaults guarantee data at the end. Calling it
// again is idempotent — unchanged data fires no callbacks and live
// watchers are registered at most once.
func (l *Loader) Load(ctx context.Context) {
	changed := make(map[Collection]bool)

	remoteOK := false
	if l.store != nil {
		remoteOK = l.loadFromStore(ctx, changed)
	}
	if !remoteOK {
		l.loadFromCache(ctx, changed, Sections, Channels)
	}
	l.ensureDefaults(ctx, changed)
	l.fanOut(changed)
}

// loadFromStore queries both collections. Any error means the remote is
// treated as unavailable for this load as a whole. A zero-record result
// is not trusted: whatever is already loaded stays, so a transient empty
// response cannot blank a populated guide.
func (l *Loader) loadFromStore(ctx context.Context, changed map[Collection]bool) bool {
	sections, err := l.store.ListSections(ctx, true)
	if err != nil {
		log.Printf("catalog: remote sections: %v (falling back to cache)", err)
		return false
	}
	channels, err := l.store.ListChannels(ctx)
	if err != nil {
		log.Printf("catalog: remote channels: %v (falling back to cache)", err)
		return false
	}

	if len(sections) > 0 && l.replaceSections(ctx, sections, true) {
		changed[Sections] = true
	}
	if len(channels) > 0 && l.replaceChannels(ctx, channels, true) {
		changed[Channels] = true
	}
	l.ensureWatchers()
	return true
}

// loadFromCache re-reads the named collections from the cache mirror. A
// missing or unparsable entry leaves the corresponding in-memory list
// untouched.
func (l *Loader) loadFromCache(ctx context.Context, changed map[Collection]bool, cols ...Collection) {
	for _, col := range cols {
		switch col {
		case Sections:
			list, err := cache.GetJSON[[]models.Section](ctx, l.cache, cache.KeySections)
			if err != nil {
				l.logCacheErr(cache.KeySections, err)
				continue
			}
			if l.replaceSections(ctx, list, false) {
				changed[Sections] = true
			}
		case Channels:
			list, err := cache.GetJSON[[]models.Channel](ctx, l.cache, cache.KeyChannels)
			if err != nil {
				l.logCacheErr(cache.KeyChannels, err)
				continue
			}
			if l.replaceChannels(ctx, list, false) {
				changed[Channels] = true
			}
		}
	}
}

func (l *Loader) logCacheErr(key string, err error) {
	if err == cache.ErrMiss {
		return
	}
	log.Printf("catalog: cache %s: %v (treating as empty)", key, err)
}

// ensureDefaults is the terminal fallback: when the whole cascade left
// both lists empty, the built-in catalog takes over and is persisted so
// subsequent loads short-circuit to the cache.
func (l *Loader) ensureDefaults(ctx context.Context, changed map[Collection]bool) {
	l.mu.Lock()
	empty := len(l.sections) == 0 && len(l.channels) == 0
	l.mu.Unlock()
	if !empty {
		return
	}
	log.Printf("catalog: no remote or cached data, using built-in defaults")
	sections, channels := models.DefaultCatalog()
	if l.replaceSections(ctx, sections, true) {
		changed[Sections] = true
	}
	if l.replaceChannels(ctx, channels, true) {
		changed[Channels] = true
	}
}

// replaceSections swaps in a full replacement list and reports whether
// it differed from the current one. With persist set, the new list is
// also mirrored to the cache (errors are logged, never fatal).
func (l *Loader) replaceSections(ctx context.Context, list []models.Section, persist bool) bool {
	l.mu.Lock()
	changed := !reflect.DeepEqual(l.sections, list)
	l.sections = list
	l.mu.Unlock()

	if persist {
		if err := cache.SetJSON(ctx, l.cache, cache.KeySections, list); err != nil {
			log.Printf("catalog: cache set %s: %v", cache.KeySections, err)
		}
	}
	return changed
}

func (l *Loader) replaceChannels(ctx context.Context, list []models.Channel, persist bool) bool {
	l.mu.Lock()
	changed := !reflect.DeepEqual(l.channels, list)
	l.channels = list
	l.mu.Unlock()

	if persist {
		if err := cache.SetJSON(ctx, l.cache, cache.KeyChannels, list); err != nil {
			log.Printf("catalog: cache set %s: %v", cache.KeyChannels, err)
		}
	}
	return changed
}

// ensureWatchers registers the live change subscriptions, once. Unlike
// the one-shot cascade, a live delivery is trusted even when empty — it
// reflects the current remote truth.
func (l *Loader) ensureWatchers() {
	l.mu.Lock()
	if l.watching || l.store == nil {
		l.mu.Unlock()
		return
	}
	l.watching = true
	l.mu.Unlock()

	onError := func(err error) {
		log.Printf("catalog: live subscription: %v (periodic cache refresh remains active)", err)
	}
	stopS, err := l.store.WatchSections(l.ctx, func(list []models.Section) {
		if l.replaceSections(l.ctx, list, true) {
			l.fanOut(map[Collection]bool{Sections: true})
		}
	}, onError)
	if err != nil {
		log.Printf("catalog: watch sections: %v", err)
	} else {
		l.addStop(stopS)
	}
	stopC, err := l.store.WatchChannels(l.ctx, func(list []models.Channel) {
		if l.replaceChannels(l.ctx, list, true) {
			l.fanOut(map[Collection]bool{Channels: true})
		}
	}, onError)
	if err != nil {
		log.Printf("catalog: watch channels: %v", err)
	} else {
		l.addStop(stopC)
	}
}

func (l *Loader) addStop(stop func()) {
	l.mu.Lock()
	l.stops = append(l.stops, stop)
	l.mu.Unlock()
}

// Start launches the cache change listener and the periodic refresh
// ticker. Both re-read the cache mirror and are idempotent: identical
// data fires no callbacks.
func (l *Loader) Start() {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	events, stopWatch, err := l.cache.Watch(l.ctx)
	if err != nil {
		log.Printf("catalog: cache watch: %v (relying on periodic refresh)", err)
	} else {
		l.addStop(stopWatch)
		l.done.Add(1)
		go func() {
			defer l.done.Done()
			for key := range events {
				switch key {
				case cache.KeySections:
					l.refreshFromCache(Sections)
				case cache.KeyChannels:
					l.refreshFromCache(Channels)
				}
			}
		}()
	}

	l.done.Add(1)
	go func() {
		defer l.done.Done()
		ticker := time.NewTicker(l.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-l.ctx.Done():
				return
			case <-ticker.C:
				l.refreshFromCache(Sections, Channels)
			}
		}
	}()
}

func (l *Loader) refreshFromCache(cols ...Collection) {
	changed := make(map[Collection]bool)
	l.loadFromCache(l.ctx, changed, cols...)
	l.fanOut(changed)
}

// fanOut notifies subscribers, sections before channels so a consumer
// always sees the section list settle before re-rendering channels
// against it.
func (l *Loader) fanOut(changed map[Collection]bool) {
	if len(changed) == 0 {
		return
	}
	l.subMu.Lock()
	fns := make([]UpdateFunc, 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.subMu.Unlock()

	for _, col := range []Collection{Sections, Channels} {
		if !changed[col] {
			continue
		}
		for _, fn := range fns {
			fn(col)
		}
	}
}

// Close releases the live subscriptions and stops the refresh machinery.
// It blocks until the loader's goroutines have exited.
func (l *Loader) Close() {
	l.cancel()
	l.mu.Lock()
	stops := l.stops
	l.stops = nil
	l.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	l.done.Wait()
}

// Sections returns the renderable sections: active only, ascending by
// order, ties kept in original sequence.
func (l *Loader) Sections() []models.Section {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Section, 0, len(l.sections))
	for _, s := range l.sections {
		if s.Active() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder() < out[j].SortOrder()
	})
	return out
}

// Section looks up an active section by id.
func (l *Loader) Section(id string) (models.Section, bool) {
	for _, s := range l.Sections() {
		if s.ID == id {
			return s, true
		}
	}
	return models.Section{}, false
}

// ChannelsBySection returns the section's channels ascending by order,
// ties kept in original sequence.
func (l *Loader) ChannelsBySection(sectionID string) []models.Channel {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Channel, 0, 8)
	for _, c := range l.channels {
		if c.SectionID == sectionID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder() < out[j].SortOrder()
	})
	return out
}

// Channel looks up a channel by id.
func (l *Loader) Channel(id string) (models.Channel, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.channels {
		if c.ID == id {
			return c, true
		}
	}
	return models.Channel{}, false
}

// Snapshot returns copies of the raw in-memory lists.
func (l *Loader) Snapshot() ([]models.Section, []models.Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sections := make([]models.Section, len(l.sections))
	copy(sections, l.sections)
	channels := make([]models.Channel, len(l.channels))
	copy(channels, l.channels)
	return sections, channels
}
