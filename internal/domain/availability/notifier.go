package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier is called after a committed write to a room's bookings or blocks.
// It drops cached snapshots and wakes watchers. It never fails the caller.
type Notifier struct {
	cache *Cache
	hub   *Hub
}

// NewNotifier creates notifier. Either argument may be nil.
func NewNotifier(cache *Cache, hub *Hub) *Notifier {
	return &Notifier{cache: cache, hub: hub}
}

func (n *Notifier) RoomChanged(ctx context.Context, roomID uuid.UUID) {
	if n.cache != nil {
		if err := n.cache.Invalidate(ctx, roomID); err != nil {
			log.Error().Err(err).Str("room_id", roomID.String()).Msg("availability cache invalidation failed")
		}
	}
	if n.hub != nil {
		n.hub.Publish(ctx, roomID)
	}
}
