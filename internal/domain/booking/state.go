package booking

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Transition is a named lifecycle operation on a booking
type Transition string

const (
	TransitionConfirm         Transition = "confirm"
	TransitionReject          Transition = "reject"
	TransitionPaymentReceived Transition = "mark_payment_received"
	TransitionComplete        Transition = "complete"
	TransitionCancel          Transition = "cancel"
)

// Capacity is the part an actor plays on a specific booking
type Capacity string

const (
	CapacityGuest Capacity = "guest"
	CapacityHost  Capacity = "host"
	CapacityAdmin Capacity = "admin"
)

type rule struct {
	from   []Status
	actors []Capacity
}

var transitions = map[Transition]rule{
	TransitionConfirm:         {from: []Status{StatusPending}, actors: []Capacity{CapacityHost, CapacityAdmin}},
	TransitionReject:          {from: []Status{StatusPending}, actors: []Capacity{CapacityHost, CapacityAdmin}},
	TransitionPaymentReceived: {from: []Status{StatusPending}, actors: []Capacity{CapacityHost, CapacityAdmin}},
	TransitionComplete:        {from: []Status{StatusConfirmed}, actors: []Capacity{CapacityHost, CapacityAdmin}},
	TransitionCancel:          {from: []Status{StatusPending, StatusConfirmed}, actors: []Capacity{CapacityGuest, CapacityHost, CapacityAdmin}},
}

func (t Transition) IsValid() bool {
	_, ok := transitions[t]
	return ok
}

// Verb is the human readable name used in messages
func (t Transition) Verb() string {
	if t == TransitionPaymentReceived {
		return "record payment for"
	}
	return string(t)
}

// AllowedFrom lists the statuses the transition may start from
func (t Transition) AllowedFrom() []Status {
	return slices.Clone(transitions[t].from)
}

// CanTransition reports whether t is permitted from status s
func CanTransition(s Status, t Transition) bool {
	return slices.Contains(transitions[t].from, s)
}

func permitted(t Transition, c Capacity) bool {
	return slices.Contains(transitions[t].actors, c)
}

// Actor is the authenticated user acting on a booking
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

// CapacityOf resolves the actor's part on this booking. Admins act as admin
// everywhere; otherwise hosts win over guests when a user is both.
func (b *Booking) CapacityOf(a Actor) (Capacity, bool) {
	switch {
	case a.Role == user.RoleAdmin:
		return CapacityAdmin, true
	case a.ID == b.HostID:
		return CapacityHost, true
	case a.ID == b.GuestID:
		return CapacityGuest, true
	}
	return "", false
}

// RefundPercentage returns the share of the total returned on cancellation.
// Hosts and admins always refund in full. Guests get the full amount at least
// a week ahead of check-in, half between three and seven days, nothing after.
func RefundPercentage(by Capacity, checkIn calendar.Day, now time.Time) int {
	if by != CapacityGuest {
		return 100
	}

	days := checkIn.Time().Sub(now.UTC()).Hours() / 24
	switch {
	case days >= 7:
		return 100
	case days >= 3:
		return 50
	default:
		return 0
	}
}

// RefundAmount applies pct to total, rounded to cents.
func RefundAmount(total decimal.Decimal, pct int) decimal.Decimal {
	return total.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).Round(2)
}

// CancellationTerms decides at creation time whether the guest may cancel later.
// Bookings made less than a day before check-in are final.
func CancellationTerms(createdAt time.Time, checkIn calendar.Day) (bool, *calendar.Day) {
	if checkIn.Time().Sub(createdAt.UTC()) < 24*time.Hour {
		return false, nil
	}
	deadline := checkIn.AddDays(-1)
	return true, &deadline
}
