package notification

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehub/spacehub-api/internal/domain/booking"
	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
	"github.com/spacehub/spacehub-api/internal/pkg/email"
)

type queued struct {
	to       string
	template string
	data     email.BookingData
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []queued
}

func (f *fakeQueue) Queue(to, _, templateName, _ string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, queued{to: to, template: templateName, data: data.(email.BookingData)})
}

type fakeUsers map[uuid.UUID]*user.User

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

type fakeRooms map[uuid.UUID]*room.Room

func (f fakeRooms) GetByID(_ context.Context, id uuid.UUID) (*room.Room, error) {
	r, ok := f[id]
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	return r, nil
}

func fixture() (*BookingMailer, *fakeQueue, *booking.Booking) {
	guest := &user.User{ID: uuid.New(), Email: "guest@example.com", Name: "Ann", Role: user.RoleGuest}
	host := &user.User{ID: uuid.New(), Email: "host@example.com", Name: "Bo", Role: user.RoleHost}
	r := &room.Room{ID: uuid.New(), HostID: host.ID, Title: "Sunny loft"}
	b := &booking.Booking{
		ID:         uuid.New(),
		RoomID:     r.ID,
		GuestID:    guest.ID,
		HostID:     host.ID,
		CheckIn:    calendar.NewDay(2025, 6, 10),
		CheckOut:   calendar.NewDay(2025, 6, 12),
		TotalPrice: decimal.NewFromInt(7700),
	}
	q := &fakeQueue{}
	m := NewBookingMailer(q, fakeUsers{guest.ID: guest, host.ID: host}, fakeRooms{r.ID: r}, "https://spacehub.test")
	return m, q, b
}

func TestCreatedNotifiesBothParties(t *testing.T) {
	m, q, b := fixture()
	m.deliver(context.Background(), booking.Event{Type: booking.EventCreated, Booking: b, Actor: booking.Actor{ID: b.GuestID}})

	require.Len(t, q.sent, 2)
	assert.Equal(t, "guest@example.com", q.sent[0].to)
	assert.Equal(t, email.TemplateBookingCreated, q.sent[0].template)
	assert.Equal(t, "host@example.com", q.sent[1].to)
	assert.Equal(t, email.TemplateBookingRequested, q.sent[1].template)
	assert.Equal(t, "Sunny loft", q.sent[1].data.RoomTitle)
	assert.Equal(t, "7700.00", q.sent[1].data.Total)
	assert.Equal(t, "https://spacehub.test/bookings/"+b.ID.String(), q.sent[0].data.BookingURL)
}

func TestCancelledSkipsActor(t *testing.T) {
	m, q, b := fixture()
	b.RefundAmount = decimal.NewNullDecimal(decimal.NewFromInt(3850))

	m.deliver(context.Background(), booking.Event{Type: booking.EventCancelled, Booking: b, Actor: booking.Actor{ID: b.GuestID}, Reason: "plans changed"})

	require.Len(t, q.sent, 1)
	assert.Equal(t, "host@example.com", q.sent[0].to)
	assert.Equal(t, "3850.00", q.sent[0].data.RefundAmount)
	assert.Equal(t, "plans changed", q.sent[0].data.Reason)
}

func TestMissingRecipientIsSkipped(t *testing.T) {
	m, q, b := fixture()
	b.GuestID = uuid.New()

	m.deliver(context.Background(), booking.Event{Type: booking.EventConfirmed, Booking: b})
	assert.Empty(t, q.sent)
}
