package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehub/spacehub-api/internal/domain/availability"
	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

func day(m, d int) calendar.Day {
	return calendar.NewDay(2025, time.Month(m), d)
}

func at(m, d, hour int) time.Time {
	return time.Date(2025, time.Month(m), d, hour, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	rooms    *fakeRooms
	room     *room.Room
	host     Actor
	admin    Actor
	events   *recordingNotifier
	changes  *recordingChanges
	earnings *recordingEarnings
	clock    time.Time
}

func newFixture(t *testing.T, roomType room.Type, basePrice int64) *fixture {
	t.Helper()

	hostID := uuid.New()
	r := &room.Room{
		ID:                uuid.New(),
		HostID:            hostID,
		Title:             "Loft",
		Type:              roomType,
		BasePrice:         decimal.NewFromInt(basePrice),
		IsAlwaysAvailable: true,
		IsActive:          true,
	}
	rooms := &fakeRooms{rooms: map[uuid.UUID]*room.Room{r.ID: r}}
	repo := newMemoryRepo(rooms)
	checker := availability.NewChecker(rooms, NewOccupancySource(repo))

	f := &fixture{
		repo:     repo,
		rooms:    rooms,
		room:     r,
		host:     Actor{ID: hostID, Role: user.RoleHost},
		admin:    Actor{ID: uuid.New(), Role: user.RoleAdmin},
		events:   &recordingNotifier{},
		changes:  &recordingChanges{},
		earnings: &recordingEarnings{},
		clock:    at(6, 1, 12),
	}
	f.svc = NewService(repo, rooms, checker, f.changes, f.events, f.earnings)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func guest() Actor {
	return Actor{ID: uuid.New(), Role: user.RoleGuest}
}

func (f *fixture) book(t *testing.T, g Actor, checkIn, checkOut string, method PaymentMethod) *Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), g.ID, &CreateBookingRequest{
		RoomID:        f.room.ID.String(),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		GuestCount:    2,
		PaymentMethod: string(method),
	})
	require.NoError(t, err)
	return b
}

func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	g := guest()

	b := f.book(t, g, "2025-06-10", "2025-06-12", PaymentCard)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.Equal(t, f.room.HostID, b.HostID)
	assert.Equal(t, 2, b.Units)
	assertDecimal(t, "7000", b.Subtotal)
	assertDecimal(t, "700", b.ServiceFee)
	assertDecimal(t, "7700", b.TotalPrice)
	assert.True(t, b.IsCancellable)
	require.NotNil(t, b.CancellationDeadline)
	assert.Equal(t, day(6, 9), *b.CancellationDeadline)

	b, err := f.svc.Transition(ctx, b.ID, f.host, TransitionConfirm, "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.True(t, b.ConfirmedAt.Valid)

	f.clock = at(6, 12, 10)
	b, err = f.svc.Transition(ctx, b.ID, f.host, TransitionComplete, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)

	assert.Equal(t, []EventType{EventCreated, EventConfirmed, EventCompleted}, f.events.types())
	assert.Equal(t, []uuid.UUID{b.ID}, f.earnings.completed)
	// only creation changes availability, completion keeps the days
	assert.Equal(t, 1, f.changes.count())
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	first := f.book(t, guest(), "2025-06-10", "2025-06-12", PaymentCard)

	_, err := f.svc.Create(ctx, uuid.New(), &CreateBookingRequest{
		RoomID: f.room.ID.String(), CheckIn: "2025-06-11", CheckOut: "2025-06-13", GuestCount: 1, PaymentMethod: "card",
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrDatesUnavailable)
	assert.Equal(t, []calendar.Day{day(6, 11), day(6, 12)}, conflict.Days)

	// cancelling releases the days
	_, err = f.svc.Transition(ctx, first.ID, f.host, TransitionCancel, "maintenance")
	require.NoError(t, err)

	f.book(t, guest(), "2025-06-11", "2025-06-13", PaymentCard)
}

func TestCreateRejectsBlockedDay(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	f.rooms.block(f.room.ID, day(6, 15))

	_, err := f.svc.Create(context.Background(), uuid.New(), &CreateBookingRequest{
		RoomID: f.room.ID.String(), CheckIn: "2025-06-14", CheckOut: "2025-06-16", GuestCount: 1, PaymentMethod: "card",
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []calendar.Day{day(6, 15)}, conflict.Days)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateBookingRequest
		field string
	}{
		{"reversed", CreateBookingRequest{RoomID: f.room.ID.String(), CheckIn: "2025-06-12", CheckOut: "2025-06-10", PaymentMethod: "card"}, "check_out"},
		{"bad date", CreateBookingRequest{RoomID: f.room.ID.String(), CheckIn: "june", CheckOut: "2025-06-10", PaymentMethod: "card"}, "check_in"},
		{"bad room id", CreateBookingRequest{RoomID: "nope", CheckIn: "2025-06-10", CheckOut: "2025-06-12", PaymentMethod: "card"}, "room_id"},
		{"bad method", CreateBookingRequest{RoomID: f.room.ID.String(), CheckIn: "2025-06-10", CheckOut: "2025-06-12", PaymentMethod: "cash"}, "payment_method"},
		{"too long", CreateBookingRequest{RoomID: f.room.ID.String(), CheckIn: "2025-06-10", CheckOut: "2026-06-11", PaymentMethod: "card"}, "check_out"},
		{"centuries", CreateBookingRequest{RoomID: f.room.ID.String(), CheckIn: "2025-06-10", CheckOut: "2425-06-10", PaymentMethod: "card"}, "check_out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, uuid.New(), &tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestStayLengthLimit(t *testing.T) {
	f := newFixture(t, room.TypeStay, 100)
	ctx := context.Background()

	// 366 occupied days, 365 billed
	b := f.book(t, guest(), "2025-06-10", "2026-06-10", PaymentCard)
	assert.Equal(t, 365, b.Units)
	assertDecimal(t, "36500", b.Subtotal)
	assert.Equal(t, 366, f.repo.claimedDays(f.room.ID))

	_, err := f.svc.Quote(ctx, &QuoteRequest{RoomID: f.room.ID.String(), CheckIn: "2027-01-01", CheckOut: "2028-01-02"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "check_out")
}

func TestCreateOutsideWindowAndInactive(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	start, end := day(6, 1), day(6, 30)
	f.room.IsAlwaysAvailable = false
	f.room.StartDate, f.room.EndDate = &start, &end

	_, err := f.svc.Create(context.Background(), uuid.New(), &CreateBookingRequest{
		RoomID: f.room.ID.String(), CheckIn: "2025-06-29", CheckOut: "2025-07-02", GuestCount: 1, PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrValidation)

	f.room.IsActive = false
	_, err = f.svc.Create(context.Background(), uuid.New(), &CreateBookingRequest{
		RoomID: f.room.ID.String(), CheckIn: "2025-06-10", CheckOut: "2025-06-11", GuestCount: 1, PaymentMethod: "card",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "room_id")
}

func TestCreateUnknownRoom(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	_, err := f.svc.Create(context.Background(), uuid.New(), &CreateBookingRequest{
		RoomID: uuid.NewString(), CheckIn: "2025-06-10", CheckOut: "2025-06-11", GuestCount: 1, PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestEventRoomChargesFlatFee(t *testing.T) {
	f := newFixture(t, room.TypeEvent, 45000)
	b := f.book(t, guest(), "2025-06-10", "2025-06-12", PaymentCard)

	assert.Equal(t, 1, b.Units)
	assertDecimal(t, "45000", b.Subtotal)
	assertDecimal(t, "4500", b.ServiceFee)
	assertDecimal(t, "49500", b.TotalPrice)
}

func TestConcurrentCreatesNeverDoubleBook(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			checkIn := day(6, 10).AddDays(i % 3)
			_, err := f.svc.Create(ctx, uuid.New(), &CreateBookingRequest{
				RoomID:        f.room.ID.String(),
				CheckIn:       checkIn.String(),
				CheckOut:      checkIn.AddDays(2).String(),
				GuestCount:    1,
				PaymentMethod: "card",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDatesUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// all candidate ranges share 6/12, so exactly one can win
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	active, err := f.repo.ListActiveByRoom(ctx, f.room.ID, calendar.DateRange{CheckIn: day(6, 1), CheckOut: day(6, 30)})
	require.NoError(t, err)
	seen := calendar.NewDaySet()
	for _, b := range active {
		for d := range b.Stay().All() {
			require.False(t, seen.Has(d), "day %s booked twice", d)
			seen.Add(d)
		}
	}
}

func TestGuestCancellationRefunds(t *testing.T) {
	tests := []struct {
		name          string
		cancelAt      time.Time
		pct           int
		refund        string
		paymentStatus PaymentStatus
	}{
		{"a week ahead", at(6, 2, 0), 100, "7700", PaymentRefunded},
		{"five days ahead", at(6, 5, 0), 50, "3850", PaymentRefunded},
		{"a day and a half ahead", at(6, 8, 12), 0, "0", PaymentPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, room.TypeStay, 3500)
			ctx := context.Background()
			g := guest()
			b := f.book(t, g, "2025-06-10", "2025-06-12", PaymentInPerson)

			b, err := f.svc.Transition(ctx, b.ID, f.host, TransitionPaymentReceived, "")
			require.NoError(t, err)
			assert.Equal(t, StatusConfirmed, b.Status)
			assert.Equal(t, PaymentPaid, b.PaymentStatus)
			assert.Equal(t, []uuid.UUID{b.ID}, f.earnings.paid)

			f.clock = tt.cancelAt
			b, err = f.svc.Transition(ctx, b.ID, g, TransitionCancel, "change of plans")
			require.NoError(t, err)

			assert.Equal(t, StatusCancelled, b.Status)
			assert.Equal(t, tt.paymentStatus, b.PaymentStatus)
			assert.Equal(t, int32(tt.pct), b.RefundPercentage.Int32)
			assertDecimal(t, tt.refund, b.RefundAmount.Decimal)
			assert.Equal(t, g.ID, b.CancelledBy.UUID)
			assert.Equal(t, "change of plans", b.CancellationReason.String)
			assert.False(t, b.IsCancellable)
			assert.Equal(t, []uuid.UUID{b.ID}, f.earnings.cancelled, "the host's earning is settled")
		})
	}
}

func TestCancelUnpaidBookingCancelsPayment(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	g := guest()
	b := f.book(t, g, "2025-06-10", "2025-06-12", PaymentCard)

	b, err := f.svc.Transition(context.Background(), b.ID, g, TransitionCancel, "")
	require.NoError(t, err)
	assert.Equal(t, PaymentCancelled, b.PaymentStatus)
	assertDecimal(t, "0", b.RefundAmount.Decimal)
	assert.Equal(t, 2, f.changes.count(), "create and cancel both change availability")
}

func TestLastMinuteBookingIsNotCancellableByGuest(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	f.clock = at(6, 9, 12)
	g := guest()

	b := f.book(t, g, "2025-06-10", "2025-06-11", PaymentCard)
	assert.False(t, b.IsCancellable)
	assert.Nil(t, b.CancellationDeadline)

	_, err := f.svc.Transition(ctx, b.ID, g, TransitionCancel, "")
	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	elig, err := f.svc.CancellationEligibility(ctx, b.ID, g)
	require.NoError(t, err)
	assert.False(t, elig.CanCancel)

	// the host still can, with a full refund
	elig, err = f.svc.CancellationEligibility(ctx, b.ID, f.host)
	require.NoError(t, err)
	assert.True(t, elig.CanCancel)
	assert.Equal(t, 100, elig.RefundPercentage)

	b, err = f.svc.Transition(ctx, b.ID, f.host, TransitionCancel, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestTransitionAuthorization(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	g := guest()
	b := f.book(t, g, "2025-06-10", "2025-06-12", PaymentCard)

	_, err := f.svc.Transition(ctx, b.ID, guest(), TransitionCancel, "")
	assert.ErrorIs(t, err, ErrNotAuthorized, "strangers may not act")

	_, err = f.svc.Transition(ctx, b.ID, g, TransitionConfirm, "")
	assert.ErrorIs(t, err, ErrNotAuthorized, "guests may not confirm")

	_, err = f.svc.Transition(ctx, b.ID, f.host, Transition("archive"), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.GetByID(ctx, b.ID, guest())
	assert.ErrorIs(t, err, ErrNotAuthorized)

	got, err := f.svc.GetByID(ctx, b.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.Transition(ctx, uuid.New(), f.host, TransitionConfirm, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestTransitionFromWrongState(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	b := f.book(t, guest(), "2025-06-10", "2025-06-12", PaymentCard)

	_, err := f.svc.Transition(ctx, b.ID, f.host, TransitionReject, "no pets")
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, b.ID, f.host, TransitionConfirm, "")
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusRejected, terr.Current)
	assert.Equal(t, []Status{StatusPending}, terr.Allowed)
	assert.Equal(t, "cannot confirm a rejected booking (allowed from: pending)", terr.Error())

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, stored.Status, "failed transitions leave the booking untouched")
	assert.Equal(t, PaymentCancelled, stored.PaymentStatus)
}

func TestCompleteBeforeCheckout(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	b := f.book(t, guest(), "2025-06-10", "2025-06-12", PaymentCard)
	_, err := f.svc.Transition(ctx, b.ID, f.host, TransitionConfirm, "")
	require.NoError(t, err)

	f.clock = at(6, 11, 23)
	_, err = f.svc.Transition(ctx, b.ID, f.host, TransitionComplete, "")
	assert.ErrorIs(t, err, ErrValidation)

	b, err = f.svc.Transition(ctx, b.ID, f.admin, TransitionComplete, "")
	require.NoError(t, err, "admins may complete early")
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestPaymentReceivedRequiresInPerson(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	b := f.book(t, guest(), "2025-06-10", "2025-06-12", PaymentCard)

	_, err := f.svc.Transition(context.Background(), b.ID, f.host, TransitionPaymentReceived, "")
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, StatusPending, terr.Current)
	assert.Contains(t, err.Error(), "in-person")
	assert.Empty(t, f.earnings.paid)

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, stored.PaymentStatus)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, room.TypeConference, 1200)
	q, err := f.svc.Quote(context.Background(), &QuoteRequest{RoomID: f.room.ID.String(), CheckIn: "2025-06-10", CheckOut: "2025-06-10"})
	require.NoError(t, err)

	assert.Equal(t, 1, q.PriceBreakdown.Units)
	assertDecimal(t, "1320", q.PriceBreakdown.Total)
	assert.True(t, q.IsCancellable)
}

func TestListsAndCleanup(t *testing.T) {
	f := newFixture(t, room.TypeStay, 3500)
	ctx := context.Background()
	g := guest()
	kept := f.book(t, g, "2025-06-10", "2025-06-12", PaymentCard)
	dropped := f.book(t, g, "2025-06-20", "2025-06-21", PaymentCard)
	_, err := f.svc.Transition(ctx, dropped.ID, f.host, TransitionReject, "")
	require.NoError(t, err)

	mine, err := f.svc.ListForGuest(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	hosting, err := f.svc.ListForHost(ctx, f.host.ID)
	require.NoError(t, err)
	assert.Len(t, hosting, 2)

	pending, err := f.svc.ListByRoom(ctx, f.room.ID, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, kept.ID, pending[0].ID)

	deleted, err := f.svc.Cleanup(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted, "recent rejections are kept")

	f.clock = time.Now().Add(48 * time.Hour)
	deleted, err = f.svc.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = f.repo.GetByID(ctx, dropped.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
