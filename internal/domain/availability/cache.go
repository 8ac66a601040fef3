package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Redis key prefixes
const (
	versionKeyPrefix  = "availability:version:"
	snapshotKeyPrefix = "availability:snapshot:"
)

// Cache stores snapshots under the room's current write version. Invalidate bumps
// the version, which orphans every snapshot taken before the write; TTL reaps them.
// A nil client turns every call into a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration

	// rooms whose invalidation could not reach Redis; bypassed until the
	// snapshots written before the failure have expired
	mu       sync.Mutex
	bypassed map[uuid.UUID]time.Time
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, bypassed: make(map[uuid.UUID]time.Time)}
}

// Usable reports whether snapshots of the room may be served from Redis.
func (c *Cache) Usable(roomID uuid.UUID) bool {
	if c.client == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.bypassed[roomID]
	if !ok {
		return true
	}
	if time.Now().After(until) {
		delete(c.bypassed, roomID)
		return true
	}
	return false
}

func (c *Cache) bypass(roomID uuid.UUID) {
	c.mu.Lock()
	c.bypassed[roomID] = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

func versionKey(roomID uuid.UUID) string {
	return versionKeyPrefix + roomID.String()
}

func snapshotKey(roomID uuid.UUID, version int64, window calendar.DateRange) string {
	return fmt.Sprintf("%s%s:%d:%s:%s", snapshotKeyPrefix, roomID, version, window.CheckIn, window.CheckOut)
}

// Version returns the room's write version, 0 if it has never been written.
func (c *Cache) Version(ctx context.Context, roomID uuid.UUID) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(roomID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *Cache) Get(ctx context.Context, roomID uuid.UUID, version int64, window calendar.DateRange) (*Snapshot, bool) {
	if !c.Usable(roomID) {
		return nil, false
	}
	data, err := c.client.Get(ctx, snapshotKey(roomID, version, window)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("room_id", roomID.String()).Msg("availability cache read failed")
		}
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

func (c *Cache) Set(ctx context.Context, version int64, snap *Snapshot) {
	if !c.Usable(snap.RoomID) {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, snapshotKey(snap.RoomID, version, snap.Window), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("room_id", snap.RoomID.String()).Msg("availability cache write failed")
	}
}

// Invalidate moves the room to a new version. When the version cannot be
// bumped it deletes the room's snapshots instead, and if that fails too this
// process stops reading the room from Redis until the old entries expire.
func (c *Cache) Invalidate(ctx context.Context, roomID uuid.UUID) error {
	if c.client == nil {
		return nil
	}
	incrErr := c.client.Incr(ctx, versionKey(roomID)).Err()
	if incrErr == nil {
		return nil
	}

	if err := c.deleteSnapshots(ctx, roomID); err != nil {
		c.bypass(roomID)
		return errors.Join(incrErr, err)
	}
	log.Warn().Err(incrErr).Str("room_id", roomID.String()).Msg("availability version bump failed, snapshots deleted")
	return nil
}

func (c *Cache) deleteSnapshots(ctx context.Context, roomID uuid.UUID) error {
	match := fmt.Sprintf("%s%s:*", snapshotKeyPrefix, roomID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
