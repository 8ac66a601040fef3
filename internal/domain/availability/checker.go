package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// RoomSource looks rooms up by id, host blocks included.
type RoomSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*room.Room, error)
}

// OccupancySource lists the bookings of a room that overlap window.
type OccupancySource interface {
	ListOccupancy(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) ([]Occupancy, error)
}

// Snapshot is the availability of one room over a window.
type Snapshot struct {
	RoomID          uuid.UUID          `json:"room_id"`
	Window          calendar.DateRange `json:"window"`
	UnavailableDays []calendar.Day     `json:"unavailable_days"`
	ActiveBookings  []Occupancy        `json:"active_bookings"`
}

// CheckResult is the outcome of checking a candidate range.
type CheckResult struct {
	Conflict        bool           `json:"conflict"`
	ConflictingDays []calendar.Day `json:"conflicting_days"`
	UnavailableDays []calendar.Day `json:"unavailable_days"`
}

// Checker builds availability from current room and booking state. It never
// reads the cache unless asked to through QuerySnapshot.
type Checker struct {
	rooms     RoomSource
	occupancy OccupancySource
	cache     *Cache
}

func NewChecker(rooms RoomSource, occupancy OccupancySource) *Checker {
	return &Checker{rooms: rooms, occupancy: occupancy}
}

// WithCache enables snapshot caching for QuerySnapshot.
func (c *Checker) WithCache(cache *Cache) *Checker {
	c.cache = cache
	return c
}

// UnavailableDays returns the unavailable days of the room inside window.
func (c *Checker) UnavailableDays(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) (calendar.DaySet, []Occupancy, error) {
	if err := window.Validate(); err != nil {
		return nil, nil, err
	}

	r, err := c.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	occupancies, err := c.occupancy.ListOccupancy(ctx, roomID, window)
	if err != nil {
		return nil, nil, fmt.Errorf("list occupancy: %w", err)
	}

	return ComputeUnavailableDays(r, occupancies).Within(window), occupancies, nil
}

// Snapshot computes a fresh snapshot for the window.
func (c *Checker) Snapshot(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) (*Snapshot, error) {
	days, occupancies, err := c.UnavailableDays(ctx, roomID, window)
	if err != nil {
		return nil, err
	}

	active := make([]Occupancy, 0, len(occupancies))
	for _, o := range occupancies {
		if o.Active {
			active = append(active, o)
		}
	}

	return &Snapshot{
		RoomID:          roomID,
		Window:          window,
		UnavailableDays: days.Sorted(),
		ActiveBookings:  active,
	}, nil
}

// QuerySnapshot serves read-only availability queries. Results are cached per
// room version, so any write that bumps the version makes older entries unreachable.
func (c *Checker) QuerySnapshot(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) (*Snapshot, error) {
	if c.cache == nil || !c.cache.Usable(roomID) {
		return c.Snapshot(ctx, roomID, window)
	}

	version, err := c.cache.Version(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID.String()).Msg("availability cache version lookup failed")
		return c.Snapshot(ctx, roomID, window)
	}

	if snap, ok := c.cache.Get(ctx, roomID, version, window); ok {
		return snap, nil
	}

	snap, err := c.Snapshot(ctx, roomID, window)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, version, snap)
	return snap, nil
}

// RefreshAndCheck re-reads the room and its bookings and checks candidate against them.
func (c *Checker) RefreshAndCheck(ctx context.Context, roomID uuid.UUID, candidate calendar.DateRange) (*CheckResult, error) {
	days, _, err := c.UnavailableDays(ctx, roomID, candidate)
	if err != nil {
		return nil, err
	}
	return Check(candidate, days), nil
}

// Check evaluates candidate against an already computed set.
func Check(candidate calendar.DateRange, unavailable calendar.DaySet) *CheckResult {
	res := &CheckResult{
		UnavailableDays: unavailable.Within(candidate).Sorted(),
		ConflictingDays: []calendar.Day{},
	}
	if HasConflict(candidate, unavailable) {
		res.Conflict = true
		res.ConflictingDays = ConflictingDays(candidate, unavailable)
	}
	return res
}
