package availability

import (
	"github.com/google/uuid"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Occupancy is a booking as seen by the availability index. Active is false for
// bookings that no longer hold their days (cancelled or rejected).
type Occupancy struct {
	BookingID uuid.UUID    `json:"id"`
	CheckIn   calendar.Day `json:"check_in"`
	CheckOut  calendar.Day `json:"check_out"`
	Status    string       `json:"status"`
	Active    bool         `json:"-"`
}

func (o Occupancy) Range() calendar.DateRange {
	return calendar.DateRange{CheckIn: o.CheckIn, CheckOut: o.CheckOut}
}

// ComputeUnavailableDays merges the room's host blocks with every day held by an
// active booking. Inactive occupancies are skipped. r must not be nil.
func ComputeUnavailableDays(r *room.Room, occupancies []Occupancy) calendar.DaySet {
	days := make(calendar.DaySet, len(r.BlockedDays))
	for _, d := range r.BlockedDays {
		days.Add(d)
	}
	for _, o := range occupancies {
		if !o.Active {
			continue
		}
		for d := range o.Range().All() {
			days.Add(d)
		}
	}
	return days
}

// HasConflict reports whether any day of candidate is unavailable. It stops at
// the first hit.
func HasConflict(candidate calendar.DateRange, unavailable calendar.DaySet) bool {
	for d := range candidate.All() {
		if unavailable.Has(d) {
			return true
		}
	}
	return false
}

// ConflictingDays lists every unavailable day of candidate in ascending order.
func ConflictingDays(candidate calendar.DateRange, unavailable calendar.DaySet) []calendar.Day {
	var out []calendar.Day
	for d := range candidate.All() {
		if unavailable.Has(d) {
			out = append(out, d)
		}
	}
	return out
}
