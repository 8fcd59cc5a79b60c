package catalog

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/models"
	"github.com/aseeltv/channelguide/internal/store"
)

// Admin write operations. Writes go to the remote store when it answers;
// when it is absent or errors, the write lands in the cached lists
// instead, so an edit made while offline still shows up everywhere the
// cache reaches. Either way the id of the affected record is known to
// the caller and every consumer is notified through the usual paths.

// CreateSection persists a new section and returns its id.
func (l *Loader) CreateSection(ctx context.Context, s models.Section) (string, error) {
	if l.store != nil {
		id, err := l.store.CreateSection(ctx, s)
		if err == nil {
			l.reloadSections(ctx)
			return id, nil
		}
		log.Printf("catalog: remote create section: %v (writing to cache)", err)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	sections, _ := l.Snapshot()
	sections = append(sections, s)
	changed := l.replaceSections(ctx, sections, true)
	if changed {
		l.fanOut(map[Collection]bool{Sections: true})
	}
	return s.ID, nil
}

// UpdateSection applies the non-nil fields of up to the section with the
// given id. Returns store.ErrNotFound when no such section exists.
func (l *Loader) UpdateSection(ctx context.Context, id string, up store.SectionUpdate) error {
	if l.store != nil {
		err := l.store.UpdateSection(ctx, id, up)
		if err == nil {
			l.reloadSections(ctx)
			return nil
		}
		if err == store.ErrNotFound {
			return err
		}
		log.Printf("catalog: remote update section: %v (writing to cache)", err)
	}
	sections, _ := l.Snapshot()
	found := false
	for i := range sections {
		if sections[i].ID == id {
			applySectionUpdate(&sections[i], up)
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}
	if l.replaceSections(ctx, sections, true) {
		l.fanOut(map[Collection]bool{Sections: true})
	}
	return nil
}

// DeleteSection removes the section with the given id. Its channels are
// left in place; they become unreachable until reassigned, which the
// snapshot model tolerates.
func (l *Loader) DeleteSection(ctx context.Context, id string) error {
	if l.store != nil {
		err := l.store.DeleteSection(ctx, id)
		if err == nil {
			l.reloadSections(ctx)
			return nil
		}
		if err == store.ErrNotFound {
			return err
		}
		log.Printf("catalog: remote delete section: %v (writing to cache)", err)
	}
	sections, _ := l.Snapshot()
	kept := sections[:0]
	found := false
	for _, s := range sections {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return store.ErrNotFound
	}
	if l.replaceSections(ctx, kept, true) {
		l.fanOut(map[Collection]bool{Sections: true})
	}
	return nil
}

// CreateChannel persists a new channel and returns its id.
func (l *Loader) CreateChannel(ctx context.Context, c models.Channel) (string, error) {
	if l.store != nil {
		id, err := l.store.CreateChannel(ctx, c)
		if err == nil {
			l.reloadChannels(ctx)
			return id, nil
		}
		log.Printf("catalog: remote create channel: %v (writing to cache)", err)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, channels := l.Snapshot()
	channels = append(channels, c)
	if l.replaceChannels(ctx, channels, true) {
		l.fanOut(map[Collection]bool{Channels: true})
	}
	return c.ID, nil
}

// UpdateChannel applies the non-nil fields of up to the channel with the
// given id. Returns store.ErrNotFound when no such channel exists.
func (l *Loader) UpdateChannel(ctx context.Context, id string, up store.ChannelUpdate) error {
	if l.store != nil {
		err := l.store.UpdateChannel(ctx, id, up)
		if err == nil {
			l.reloadChannels(ctx)
			return nil
		}
		if err == store.ErrNotFound {
			return err
		}
		log.Printf("catalog: remote update channel: %v (writing to cache)", err)
	}
	_, channels := l.Snapshot()
	found := false
	for i := range channels {
		if channels[i].ID == id {
			applyChannelUpdate(&channels[i], up)
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}
	if l.replaceChannels(ctx, channels, true) {
		l.fanOut(map[Collection]bool{Channels: true})
	}
	return nil
}

// DeleteChannel removes the channel with the given id.
func (l *Loader) DeleteChannel(ctx context.Context, id string) error {
	if l.store != nil {
		err := l.store.DeleteChannel(ctx, id)
		if err == nil {
			l.reloadChannels(ctx)
			return nil
		}
		if err == store.ErrNotFound {
			return err
		}
		log.Printf("catalog: remote delete channel: %v (writing to cache)", err)
	}
	_, channels := l.Snapshot()
	kept := channels[:0]
	found := false
	for _, c := range channels {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return store.ErrNotFound
	}
	if l.replaceChannels(ctx, kept, true) {
		l.fanOut(map[Collection]bool{Channels: true})
	}
	return nil
}

// Sync re-runs the load cascade on demand (the admin "sync" button). The
// cache lock keeps concurrent syncs across instances from piling up.
func (l *Loader) Sync(ctx context.Context) error {
	unlock, err := l.cache.TryLock(ctx, cache.KeySyncLock, 30*time.Second)
	if err != nil {
		return err
	}
	defer unlock()
	l.Load(ctx)
	return nil
}

// reloadSections re-queries the authoritative section list after a
// successful remote write, rather than waiting for the change feed.
func (l *Loader) reloadSections(ctx context.Context) {
	list, err := l.store.ListSections(ctx, true)
	if err != nil {
		log.Printf("catalog: reload sections: %v", err)
		return
	}
	if l.replaceSections(ctx, list, true) {
		l.fanOut(map[Collection]bool{Sections: true})
	}
}

func (l *Loader) reloadChannels(ctx context.Context) {
	list, err := l.store.ListChannels(ctx)
	if err != nil {
		log.Printf("catalog: reload channels: %v", err)
		return
	}
	if l.replaceChannels(ctx, list, true) {
		l.fanOut(map[Collection]bool{Channels: true})
	}
}

func applySectionUpdate(s *models.Section, up store.SectionUpdate) {
	if up.Name != nil {
		s.Name = *up.Name
	}
	if up.Order != nil {
		s.Order = *up.Order
	}
	if up.IsActive != nil {
		v := *up.IsActive
		s.IsActive = &v
	}
	if up.Description != nil {
		v := *up.Description
		s.Description = &v
	}
}

func applyChannelUpdate(c *models.Channel, up store.ChannelUpdate) {
	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.Image != nil {
		c.Image = *up.Image
	}
	if up.URL != nil {
		c.URL = *up.URL
	}
	if up.AppURL != nil {
		c.AppURL = *up.AppURL
	}
	if up.DownloadURL != nil {
		c.DownloadURL = *up.DownloadURL
	}
	if up.Order != nil {
		c.Order = *up.Order
	}
	if up.SectionID != nil {
		c.SectionID = *up.SectionID
	}
}
