package sync

import (
	"time"

	"mealhub/internal/store"
)

const (
	EventCatalogReplaced = "catalog.replaced"
	EventWelcome         = "welcome"
)

// CatalogEvent announces that the shared meal cache holds a new generation.
// Clients refetch the list when the generation differs from the one they show.
type CatalogEvent struct {
	Type       string       `json:"type"`
	Generation string       `json:"generation"`
	Source     store.Source `json:"source"`
	Count      int          `json:"count"`
	At         time.Time    `json:"at"`
}

func EventFromSnapshot(s store.Snapshot) CatalogEvent {
	return CatalogEvent{
		Type:       EventCatalogReplaced,
		Generation: s.Generation,
		Source:     s.Source,
		Count:      len(s.Meals),
		At:         s.UpdatedAt,
	}
}

// Forward subscribes the hub to cache replacements and returns the
// unsubscribe func.
func Forward(cache *store.Store, hub *Hub) func() {
	return cache.Subscribe(func(s store.Snapshot) {
		hub.BroadcastJSON(EventFromSnapshot(s))
	})
}
