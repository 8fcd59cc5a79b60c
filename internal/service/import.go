package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aseeltv/channelguide/internal/catalog"
	"github.com/aseeltv/channelguide/internal/fetcher"
	"github.com/aseeltv/channelguide/internal/models"
	"github.com/aseeltv/channelguide/internal/store"
)

// Import fetches an M3U playlist and merges it into the catalog through
// the admin write path. Each group-title becomes a section (created on
// first sight, reused by name afterwards); entries become channels in
// playlist order. An existing channel with the same name in the same
// section is updated in place rather than duplicated, so re-importing a
// playlist is idempotent. When sectionName is non-empty every entry
// lands in that one section regardless of group-title.
func Import(ctx context.Context, loader *catalog.Loader, m3uURL, sectionName, userAgent string, timeout time.Duration) (sectionsCreated, channelsImported int, err error) {
	if m3uURL == "" {
		return 0, 0, fmt.Errorf("playlist URL is required")
	}

	entries, err := fetcher.FetchM3U(ctx, m3uURL, userAgent, timeout)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch: %w", err)
	}
	if len(entries) == 0 {
		return 0, 0, fmt.Errorf("playlist has no entries")
	}

	existingSections, existingChannels := loader.Snapshot()

	sectionIDs := make(map[string]string, len(existingSections))
	nextOrder := 1
	for _, s := range existingSections {
		sectionIDs[s.Name] = s.ID
		if s.SortOrder() >= nextOrder {
			nextOrder = s.SortOrder() + 1
		}
	}

	// Channel lookup by (section id, name) for idempotent re-imports.
	type chanKey struct{ sectionID, name string }
	channelIDs := make(map[chanKey]string, len(existingChannels))
	perSection := make(map[string]int)
	for _, c := range existingChannels {
		channelIDs[chanKey{c.SectionID, c.Name}] = c.ID
		if c.SortOrder() > perSection[c.SectionID] {
			perSection[c.SectionID] = c.SortOrder()
		}
	}

	for _, e := range entries {
		// Allow graceful cancellation during long imports.
		if err := ctx.Err(); err != nil {
			return sectionsCreated, channelsImported, fmt.Errorf("import cancelled: %w", err)
		}

		name := sectionName
		if name == "" {
			name = e.Section
		}
		if name == "" {
			name = "Channels"
		}

		sid, ok := sectionIDs[name]
		if !ok {
			id, err := loader.CreateSection(ctx, models.Section{Name: name, Order: nextOrder})
			if err != nil {
				return sectionsCreated, channelsImported, fmt.Errorf("create section %q: %w", name, err)
			}
			sectionIDs[name] = id
			sid = id
			nextOrder++
			sectionsCreated++
		}

		key := chanKey{sid, e.Name}
		if id, ok := channelIDs[key]; ok {
			url, image := e.URL, e.Image
			err := loader.UpdateChannel(ctx, id, store.ChannelUpdate{URL: &url, Image: &image})
			if err != nil {
				return sectionsCreated, channelsImported, fmt.Errorf("update channel %q: %w", e.Name, err)
			}
		} else {
			perSection[sid]++
			id, err := loader.CreateChannel(ctx, models.Channel{
				Name:      e.Name,
				Image:     e.Image,
				URL:       e.URL,
				Order:     perSection[sid],
				SectionID: sid,
			})
			if err != nil {
				return sectionsCreated, channelsImported, fmt.Errorf("create channel %q: %w", e.Name, err)
			}
			channelIDs[key] = id
		}
		channelsImported++
	}

	return sectionsCreated, channelsImported, nil
}
