package store

import (
	"context"
	"errors"

	"github.com/aseeltv/channelguide/internal/models"
)

// Collection names served by the remote store.
const (
	CollectionSections = "sections"
	CollectionChannels = "channels"
)

// ErrNotFound is returned when an update or delete targets a record that
// does not exist.
var ErrNotFound = errors.New("not found")

// Store is the remote document store port for the channel guide. The
// catalog loader treats every method as fallible and degrades to the
// cache mirror when calls error, so implementations should return errors
// rather than retry internally (the change feed is the one exception).
type Store interface {
	// ListSections returns sections ordered ascending by their order
	// field, insertion sequence breaking ties. With activeOnly set, only
	// sections not explicitly deactivated are returned.
	ListSections(ctx context.Context, activeOnly bool) ([]models.Section, error)
	// ListChannels returns all channels for all sections, ordered
	// ascending by their order field.
	ListChannels(ctx context.Context) ([]models.Channel, error)

	CreateSection(ctx context.Context, s models.Section) (string, error)
	UpdateSection(ctx context.Context, id string, up SectionUpdate) error
	DeleteSection(ctx context.Context, id string) error

	CreateChannel(ctx context.Context, c models.Channel) (string, error)
	UpdateChannel(ctx context.Context, id string, up ChannelUpdate) error
	DeleteChannel(ctx context.Context, id string) error

	// WatchSections delivers the full, current section list (same filter
	// and order as ListSections(activeOnly=true)) on every change to the
	// collection. An empty delivery is authoritative. The watcher
	// reconnects with capped backoff; errors are reported to onError and
	// never stop the watch. The returned stop function releases the
	// subscription and must be called on teardown.
	WatchSections(ctx context.Context, onChange func([]models.Section), onError func(error)) (stop func(), err error)
	// WatchChannels is WatchSections for the channel collection.
	WatchChannels(ctx context.Context, onChange func([]models.Channel), onError func(error)) (stop func(), err error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// ProbeWrite verifies write access with a write/read/delete roundtrip
	// against a scratch table.
	ProbeWrite(ctx context.Context) error

	Close()
}

// SectionUpdate holds mutable section fields.
// Pointer fields: nil = don't change, non-nil = set.
type SectionUpdate struct {
	Name        *string
	Order       *int
	IsActive    *bool
	Description *string
}

// ChannelUpdate holds mutable channel fields.
// Pointer fields: nil = don't change, non-nil = set.
type ChannelUpdate struct {
	Name        *string
	Image       *string
	URL         *string
	AppURL      *string
	DownloadURL *string
	Order       *int
	SectionID   *string
}
