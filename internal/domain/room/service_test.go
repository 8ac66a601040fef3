package room

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

type memoryRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rooms: map[uuid.UUID]*Room{}}
}

func (m *memoryRepo) Create(_ context.Context, r *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rooms[r.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *r
	cp.BlockedDays = slices.Clone(r.BlockedDays)
	return &cp, nil
}

func (m *memoryRepo) AddBlockedDays(_ context.Context, roomID uuid.UUID, days []calendar.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := calendar.NewDaySet(m.rooms[roomID].BlockedDays...)
	for _, d := range days {
		set.Add(d)
	}
	m.rooms[roomID].BlockedDays = set.Sorted()
	return nil
}

func (m *memoryRepo) RemoveBlockedDays(_ context.Context, roomID uuid.UUID, days []calendar.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID].BlockedDays = slices.DeleteFunc(m.rooms[roomID].BlockedDays, func(d calendar.Day) bool {
		return slices.Contains(days, d)
	})
	return nil
}

func (m *memoryRepo) UpdateWindow(_ context.Context, roomID uuid.UUID, start, end *calendar.Day, always bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	r.StartDate, r.EndDate, r.IsAlwaysAvailable = start, end, always
	return nil
}

type countingNotifier struct {
	mu    sync.Mutex
	rooms []uuid.UUID
}

func (c *countingNotifier) RoomChanged(_ context.Context, roomID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = append(c.rooms, roomID)
}

func ptr(s string) *string { return &s }

func TestBookable(t *testing.T) {
	start, end := calendar.NewDay(2025, 6, 1), calendar.NewDay(2025, 6, 30)
	r := &Room{IsActive: true, StartDate: &start, EndDate: &end}

	inside := calendar.DateRange{CheckIn: calendar.NewDay(2025, 6, 10), CheckOut: calendar.NewDay(2025, 6, 12)}
	edges := calendar.DateRange{CheckIn: start, CheckOut: end}
	early := calendar.DateRange{CheckIn: calendar.NewDay(2025, 5, 31), CheckOut: calendar.NewDay(2025, 6, 2)}
	late := calendar.DateRange{CheckIn: calendar.NewDay(2025, 6, 29), CheckOut: calendar.NewDay(2025, 7, 1)}

	assert.NoError(t, r.Bookable(inside))
	assert.NoError(t, r.Bookable(edges))
	assert.ErrorIs(t, r.Bookable(early), ErrOutsideWindow)
	assert.ErrorIs(t, r.Bookable(late), ErrOutsideWindow)

	r.IsAlwaysAvailable = true
	assert.NoError(t, r.Bookable(late))

	r.IsActive = false
	assert.ErrorIs(t, r.Bookable(inside), ErrRoomInactive)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()
	hostID := uuid.New()

	_, err := svc.Create(ctx, hostID, &CreateRoomRequest{Title: "Loft", Type: "castle", BasePrice: "10"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(ctx, hostID, &CreateRoomRequest{Title: "Loft", Type: "stay", BasePrice: "0"})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.Create(ctx, hostID, &CreateRoomRequest{
		Title: "Loft", Type: "stay", BasePrice: "10",
		StartDate: ptr("2025-07-01"), EndDate: ptr("2025-06-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	r, err := svc.Create(ctx, hostID, &CreateRoomRequest{Title: "Loft", Type: "stay", BasePrice: "3500.00"})
	require.NoError(t, err)
	assert.True(t, r.IsAlwaysAvailable, "no window means always available")
	assert.True(t, r.IsActive)
	assert.Equal(t, hostID, r.HostID)
}

func TestBlockDaysNotifiesAndRequiresOwner(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &countingNotifier{}
	svc := NewService(repo, notifier)
	ctx := context.Background()

	hostID := uuid.New()
	r, err := svc.Create(ctx, hostID, &CreateRoomRequest{Title: "Studio", Type: "conference", BasePrice: "120"})
	require.NoError(t, err)

	days := []calendar.Day{calendar.NewDay(2025, 6, 11), calendar.NewDay(2025, 6, 10)}

	_, err = svc.BlockDays(ctx, uuid.New(), user.RoleHost, r.ID, days)
	assert.ErrorIs(t, err, ErrNotRoomOwner)
	assert.Empty(t, notifier.rooms)

	updated, err := svc.BlockDays(ctx, hostID, user.RoleHost, r.ID, days)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Day{calendar.NewDay(2025, 6, 10), calendar.NewDay(2025, 6, 11)}, updated.BlockedDays)

	updated, err = svc.UnblockDays(ctx, uuid.New(), user.RoleAdmin, r.ID, days[:1])
	require.NoError(t, err, "admins manage any room")
	assert.Equal(t, []calendar.Day{calendar.NewDay(2025, 6, 10)}, updated.BlockedDays)

	assert.Equal(t, []uuid.UUID{r.ID, r.ID}, notifier.rooms)
}

func TestUpdateWindow(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &countingNotifier{}
	svc := NewService(repo, notifier)
	ctx := context.Background()

	hostID := uuid.New()
	r, err := svc.Create(ctx, hostID, &CreateRoomRequest{Title: "Hall", Type: "event", BasePrice: "49500"})
	require.NoError(t, err)

	updated, err := svc.UpdateWindow(ctx, hostID, user.RoleHost, r.ID, &UpdateWindowRequest{
		StartDate: ptr("2025-06-01"), EndDate: ptr("2025-08-31"),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsAlwaysAvailable)

	window, ok := updated.Window()
	require.True(t, ok)
	assert.Equal(t, calendar.NewDay(2025, 6, 1), window.CheckIn)
	assert.Equal(t, calendar.NewDay(2025, 8, 31), window.CheckOut)
	assert.Len(t, notifier.rooms, 1)

	_, err = svc.UpdateWindow(ctx, hostID, user.RoleHost, uuid.New(), &UpdateWindowRequest{})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
