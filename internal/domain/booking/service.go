package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/availability"
	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// EventType names a booking lifecycle event
type EventType string

const (
	EventCreated         EventType = "booking.created"
	EventConfirmed       EventType = "booking.confirmed"
	EventRejected        EventType = "booking.rejected"
	EventPaymentReceived EventType = "booking.payment_received"
	EventCompleted       EventType = "booking.completed"
	EventCancelled       EventType = "booking.cancelled"
)

var transitionEvents = map[Transition]EventType{
	TransitionConfirm:         EventConfirmed,
	TransitionReject:          EventRejected,
	TransitionPaymentReceived: EventPaymentReceived,
	TransitionComplete:        EventCompleted,
	TransitionCancel:          EventCancelled,
}

// Event is emitted after a booking change has been committed
type Event struct {
	Type    EventType
	Booking *Booking
	Actor   Actor
	Reason  string
}

// Notifier delivers booking events to the parties. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// EarningsRecorder keeps the host's earnings in step with the booking.
type EarningsRecorder interface {
	RecordPaymentReceived(ctx context.Context, b *Booking) error
	RecordCompleted(ctx context.Context, b *Booking) error
	RecordCancelled(ctx context.Context, b *Booking) error
}

// RoomReader loads rooms with their host blocks
type RoomReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*room.Room, error)
}

// Service handles booking business logic
type Service struct {
	repo     Repository
	rooms    RoomReader
	checker  *availability.Checker
	changes  room.ChangeNotifier
	notifier Notifier
	earnings EarningsRecorder
	now      func() time.Time
}

// NewService creates booking service. changes, notifier and earnings may be nil.
func NewService(repo Repository, rooms RoomReader, checker *availability.Checker, changes room.ChangeNotifier, notifier Notifier, earnings EarningsRecorder) *Service {
	return &Service{
		repo:     repo,
		rooms:    rooms,
		checker:  checker,
		changes:  changes,
		notifier: notifier,
		earnings: earnings,
		now:      time.Now,
	}
}

// Quote prices a stay for a room
func (s *Service) Quote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	roomID, stay, err := parseStay(req.RoomID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	r, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	cancellable, deadline := CancellationTerms(s.now(), stay.CheckIn)
	return &QuoteResponse{
		CheckIn:              stay.CheckIn,
		CheckOut:             stay.CheckOut,
		PriceBreakdown:       ComputeBreakdown(r.BasePrice, ComputeDuration(stay, r.Type), r.Type),
		IsCancellable:        cancellable,
		CancellationDeadline: deadline,
	}, nil
}

// Create books a room for the guest. Availability is checked against current
// state first and again by the repository under the room lock.
func (s *Service) Create(ctx context.Context, guestID uuid.UUID, req *CreateBookingRequest) (*Booking, error) {
	roomID, stay, err := parseStay(req.RoomID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	method := PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, NewValidationError("payment_method", "must be one of card, mobile, in-person")
	}

	r, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if err := r.Bookable(stay); err != nil {
		switch {
		case errors.Is(err, room.ErrRoomInactive):
			return nil, NewValidationError("room_id", "room is not accepting bookings")
		case errors.Is(err, room.ErrOutsideWindow):
			return nil, NewValidationError("check_in", "dates are outside the room's availability window")
		}
		return nil, err
	}

	check, err := s.checker.RefreshAndCheck(ctx, roomID, stay)
	if err != nil {
		return nil, err
	}
	if check.Conflict {
		return nil, &ConflictError{Days: check.ConflictingDays}
	}

	now := s.now()
	cancellable, deadline := CancellationTerms(now, stay.CheckIn)

	b := &Booking{
		ID:                   uuid.New(),
		RoomID:               r.ID,
		GuestID:              guestID,
		HostID:               r.HostID,
		RoomType:             r.Type,
		CheckIn:              stay.CheckIn,
		CheckOut:             stay.CheckOut,
		CheckInTime:          sql.NullString{String: req.CheckInTime, Valid: req.CheckInTime != ""},
		CheckOutTime:         sql.NullString{String: req.CheckOutTime, Valid: req.CheckOutTime != ""},
		GuestCount:           req.GuestCount,
		Status:               StatusPending,
		PaymentStatus:        PaymentPending,
		PaymentMethod:        method,
		IsCancellable:        cancellable,
		CancellationDeadline: deadline,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	b.applyBreakdown(ComputeBreakdown(r.BasePrice, ComputeDuration(stay, r.Type), r.Type))

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("room_id", b.RoomID.String()).
		Str("guest_id", guestID.String()).
		Str("check_in", b.CheckIn.String()).
		Str("check_out", b.CheckOut.String()).
		Str("total", b.TotalPrice.String()).
		Msg("booking created")

	s.roomChanged(ctx, b.RoomID)
	s.notify(ctx, Event{Type: EventCreated, Booking: b, Actor: Actor{ID: guestID}})

	return b, nil
}

// GetByID returns a booking visible to the actor
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, actor Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := b.CapacityOf(actor); !ok {
		return nil, ErrNotAuthorized
	}
	return b, nil
}

// ListForGuest returns the bookings made by the guest
func (s *Service) ListForGuest(ctx context.Context, guestID uuid.UUID) ([]*Booking, error) {
	return s.repo.ListByGuest(ctx, guestID)
}

// ListForHost returns the bookings on the host's rooms
func (s *Service) ListForHost(ctx context.Context, hostID uuid.UUID) ([]*Booking, error) {
	return s.repo.ListByHost(ctx, hostID)
}

// ListByRoom returns a room's bookings in the given statuses (all when none given)
func (s *Service) ListByRoom(ctx context.Context, roomID uuid.UUID, statuses ...Status) ([]*Booking, error) {
	return s.repo.FindByRoomAndStatus(ctx, roomID, statuses...)
}

// Transition applies a lifecycle operation on behalf of actor.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, actor Actor, t Transition, reason string) (*Booking, error) {
	if !t.IsValid() {
		return nil, NewValidationError("transition", "unknown transition")
	}

	now := s.now()
	var wasActive bool
	b, err := s.repo.Update(ctx, id, func(b *Booking) error {
		wasActive = b.IsActive()
		return applyTransition(b, actor, t, reason, now)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("actor_id", actor.ID.String()).
		Str("transition", string(t)).
		Str("status", string(b.Status)).
		Str("payment_status", string(b.PaymentStatus)).
		Msg("booking transition applied")

	if wasActive && !b.IsActive() {
		s.roomChanged(ctx, b.RoomID)
	}
	s.recordEarnings(ctx, b, t)
	s.notify(ctx, Event{Type: transitionEvents[t], Booking: b, Actor: actor, Reason: reason})

	return b, nil
}

// applyTransition mutates b in place. Parties are checked first, then the
// current status, then whether the actor's capacity may perform t.
func applyTransition(b *Booking, actor Actor, t Transition, reason string, now time.Time) error {
	capacity, ok := b.CapacityOf(actor)
	if !ok {
		return ErrNotAuthorized
	}
	if !CanTransition(b.Status, t) {
		return &TransitionError{Current: b.Status, Transition: t, Allowed: t.AllowedFrom()}
	}
	if !permitted(t, capacity) {
		return ErrNotAuthorized
	}

	switch t {
	case TransitionConfirm:
		b.Status = StatusConfirmed
		b.ConfirmedAt = sql.NullTime{Time: now, Valid: true}

	case TransitionReject:
		refund := decimal.Zero
		if b.PaymentStatus == PaymentPaid {
			refund = b.TotalPrice
		}
		b.Status = StatusRejected
		markCancelled(b, actor, reason, refund, 100, now)

	case TransitionPaymentReceived:
		if b.PaymentMethod != PaymentInPerson {
			return &TransitionError{Current: b.Status, Transition: t, Allowed: t.AllowedFrom(), Reason: "payment is only recorded for in-person bookings"}
		}
		if b.PaymentStatus != PaymentPending {
			return &TransitionError{Current: b.Status, Transition: t, Allowed: t.AllowedFrom(), Reason: "payment was already " + string(b.PaymentStatus)}
		}
		b.PaymentStatus = PaymentPaid
		b.PaidAt = sql.NullTime{Time: now, Valid: true}
		b.Status = StatusConfirmed
		if !b.ConfirmedAt.Valid {
			b.ConfirmedAt = sql.NullTime{Time: now, Valid: true}
		}

	case TransitionComplete:
		if capacity != CapacityAdmin && calendar.ToDay(now).Before(b.CheckOut) {
			return ErrTooEarlyToComplete
		}
		b.Status = StatusCompleted
		b.CompletedAt = sql.NullTime{Time: now, Valid: true}

	case TransitionCancel:
		if capacity == CapacityGuest && !b.IsCancellable {
			return ErrNotCancellable
		}
		pct := RefundPercentage(capacity, b.CheckIn, now)
		refund := decimal.Zero
		if b.PaymentStatus == PaymentPaid {
			refund = RefundAmount(b.TotalPrice, pct)
		}
		b.Status = StatusCancelled
		markCancelled(b, actor, reason, refund, pct, now)
	}

	return nil
}

func markCancelled(b *Booking, actor Actor, reason string, refund decimal.Decimal, pct int, now time.Time) {
	b.CancelledAt = sql.NullTime{Time: now, Valid: true}
	b.CancelledBy = uuid.NullUUID{UUID: actor.ID, Valid: true}
	b.CancellationReason = sql.NullString{String: reason, Valid: reason != ""}
	b.RefundAmount = decimal.NewNullDecimal(refund)
	b.RefundPercentage = sql.NullInt32{Int32: int32(pct), Valid: true}
	b.IsCancellable = false

	switch {
	case b.PaymentStatus == PaymentPaid && refund.IsPositive():
		b.PaymentStatus = PaymentRefunded
	case b.PaymentStatus == PaymentPending:
		b.PaymentStatus = PaymentCancelled
	}
}

// CancellationEligibility reports whether the actor could cancel now and the refund it would yield.
func (s *Service) CancellationEligibility(ctx context.Context, id uuid.UUID, actor Actor) (*CancellationEligibility, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	capacity, ok := b.CapacityOf(actor)
	if !ok {
		return nil, ErrNotAuthorized
	}

	out := &CancellationEligibility{RefundAmount: decimal.Zero}
	switch {
	case !CanTransition(b.Status, TransitionCancel):
		out.Reason = "booking is " + string(b.Status)
		return out, nil
	case capacity == CapacityGuest && !b.IsCancellable:
		out.Reason = "booking was made less than 24 hours before check-in"
		return out, nil
	}

	out.CanCancel = true
	out.RefundPercentage = RefundPercentage(capacity, b.CheckIn, s.now())
	if b.PaymentStatus == PaymentPaid {
		out.RefundAmount = RefundAmount(b.TotalPrice, out.RefundPercentage)
	}
	return out, nil
}

// Cleanup deletes cancelled and rejected bookings not touched for olderThan.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	deleted, err := s.repo.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("inactive bookings cleaned up")
	}
	return deleted, nil
}

func (s *Service) roomChanged(ctx context.Context, roomID uuid.UUID) {
	if s.changes != nil {
		s.changes.RoomChanged(ctx, roomID)
	}
}

func (s *Service) notify(ctx context.Context, event Event) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
}

func (s *Service) recordEarnings(ctx context.Context, b *Booking, t Transition) {
	if s.earnings == nil {
		return
	}

	var err error
	switch t {
	case TransitionPaymentReceived:
		err = s.earnings.RecordPaymentReceived(ctx, b)
	case TransitionComplete:
		err = s.earnings.RecordCompleted(ctx, b)
	case TransitionCancel, TransitionReject:
		err = s.earnings.RecordCancelled(ctx, b)
	default:
		return
	}
	if err != nil {
		log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to record earnings")
	}
}

func parseStay(roomIDRaw, checkInRaw, checkOutRaw string) (uuid.UUID, calendar.DateRange, error) {
	roomID, err := uuid.Parse(roomIDRaw)
	if err != nil {
		return uuid.Nil, calendar.DateRange{}, NewValidationError("room_id", "must be a valid UUID")
	}

	fields := map[string]string{}
	checkIn, err := calendar.ParseDay(checkInRaw)
	if err != nil {
		fields["check_in"] = "must be a date in YYYY-MM-DD format"
	}
	checkOut, err := calendar.ParseDay(checkOutRaw)
	if err != nil {
		fields["check_out"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) > 0 {
		return uuid.Nil, calendar.DateRange{}, &ValidationError{Fields: fields}
	}

	stay, err := calendar.NewDateRange(checkIn, checkOut)
	if err != nil {
		return uuid.Nil, calendar.DateRange{}, NewValidationError("check_out", "must not be before check_in")
	}
	if err := stay.CheckLength(); err != nil {
		return uuid.Nil, calendar.DateRange{}, NewValidationError("check_out", err.Error())
	}
	return roomID, stay, nil
}
