package booking

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

type fakeRooms struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*room.Room
}

func (f *fakeRooms) GetByID(_ context.Context, id uuid.UUID) (*room.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	cp := *r
	cp.BlockedDays = slices.Clone(r.BlockedDays)
	return &cp, nil
}

func (f *fakeRooms) block(roomID uuid.UUID, days ...calendar.Day) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[roomID].BlockedDays = append(f.rooms[roomID].BlockedDays, days...)
}

// memoryRepo mirrors the Postgres repository: Create checks and claims days
// atomically, Update releases them when a booking stops being active.
type memoryRepo struct {
	mu       sync.Mutex
	rooms    *fakeRooms
	bookings map[uuid.UUID]*Booking
	claimed  map[uuid.UUID]map[calendar.Day]uuid.UUID
}

func newMemoryRepo(rooms *fakeRooms) *memoryRepo {
	return &memoryRepo{
		rooms:    rooms,
		bookings: map[uuid.UUID]*Booking{},
		claimed:  map[uuid.UUID]map[calendar.Day]uuid.UUID{},
	}
}

func (m *memoryRepo) Create(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return err
	}
	blocked := calendar.NewDaySet(r.BlockedDays...)
	claimed := m.claimed[b.RoomID]

	var taken []calendar.Day
	for d := range b.Stay().All() {
		if _, ok := claimed[d]; ok || blocked.Has(d) {
			taken = append(taken, d)
		}
	}
	if len(taken) > 0 {
		return &ConflictError{Days: taken}
	}

	if claimed == nil {
		claimed = map[calendar.Day]uuid.UUID{}
		m.claimed[b.RoomID] = claimed
	}
	for d := range b.Stay().All() {
		claimed[d] = b.ID
	}
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memoryRepo) claimedDays(roomID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claimed[roomID])
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memoryRepo) Update(_ context.Context, id uuid.UUID, fn func(b *Booking) error) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}

	b := *stored
	wasActive := b.IsActive()
	if err := fn(&b); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now()

	if wasActive && !b.IsActive() {
		for d, owner := range m.claimed[b.RoomID] {
			if owner == b.ID {
				delete(m.claimed[b.RoomID], d)
			}
		}
	}

	m.bookings[id] = &b
	cp := b
	return &cp, nil
}

func (m *memoryRepo) FindByRoomAndStatus(_ context.Context, roomID uuid.UUID, statuses ...Status) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool {
		return b.RoomID == roomID && (len(statuses) == 0 || slices.Contains(statuses, b.Status))
	}), nil
}

func (m *memoryRepo) ListActiveByRoom(_ context.Context, roomID uuid.UUID, window calendar.DateRange) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool {
		return b.RoomID == roomID && b.IsActive() && b.Stay().Overlaps(window)
	}), nil
}

func (m *memoryRepo) ListByGuest(_ context.Context, guestID uuid.UUID) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool { return b.GuestID == guestID }), nil
}

func (m *memoryRepo) ListByHost(_ context.Context, hostID uuid.UUID) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool { return b.HostID == hostID }), nil
}

func (m *memoryRepo) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.bookings {
		if (b.Status == StatusCancelled || b.Status == StatusRejected) && b.UpdatedAt.Before(cutoff) {
			delete(m.bookings, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) filter(keep func(b *Booking) bool) []*Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Booking) int { return a.CheckIn.Compare(b.CheckIn) })
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type recordingChanges struct {
	mu    sync.Mutex
	rooms []uuid.UUID
}

func (r *recordingChanges) RoomChanged(_ context.Context, roomID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = append(r.rooms, roomID)
}

func (r *recordingChanges) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

type recordingEarnings struct {
	mu        sync.Mutex
	paid      []uuid.UUID
	completed []uuid.UUID
	cancelled []uuid.UUID
}

func (r *recordingEarnings) RecordPaymentReceived(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, b.ID)
	return nil
}

func (r *recordingEarnings) RecordCompleted(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, b.ID)
	return nil
}

func (r *recordingEarnings) RecordCancelled(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, b.ID)
	return nil
}
