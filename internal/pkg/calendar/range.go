package calendar

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// MaxRangeDays bounds every range accepted from a client: stays, availability
// windows and block lists.
const MaxRangeDays = 366

var (
	ErrReversedRange = errors.New("check-in must not be after check-out")
	ErrRangeTooLong  = fmt.Errorf("range must not exceed %d days", MaxRangeDays)
)

// DateRange is an inclusive span of days. Both CheckIn and CheckOut count as
// occupied, so a guest checking out on day N still holds day N. Same-day
// turnover is therefore impossible; this is a product decision kept on purpose.
type DateRange struct {
	CheckIn  Day `json:"check_in"`
	CheckOut Day `json:"check_out"`
}

// NewDateRange returns ErrReversedRange when checkIn is after checkOut.
func NewDateRange(checkIn, checkOut Day) (DateRange, error) {
	r := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return ErrInvalidDay
	}
	if r.CheckIn.After(r.CheckOut) {
		return ErrReversedRange
	}
	return nil
}

// CheckLength returns ErrRangeTooLong when r spans more than MaxRangeDays days.
func (r DateRange) CheckLength() error {
	if r.Len() > MaxRangeDays {
		return ErrRangeTooLong
	}
	return nil
}

// Len is the number of days enumerated by the range.
func (r DateRange) Len() int {
	if r.CheckIn.After(r.CheckOut) {
		return 0
	}
	return r.CheckIn.DaysUntil(r.CheckOut) + 1
}

func (r DateRange) Contains(d Day) bool {
	return !d.Before(r.CheckIn) && !d.After(r.CheckOut)
}

// Overlaps reports whether the two ranges share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.CheckOut.Before(o.CheckIn) && !o.CheckOut.Before(r.CheckIn)
}

// All yields every day from CheckIn through CheckOut. A reversed range yields nothing;
// call Validate first when that matters.
func (r DateRange) All() iter.Seq[Day] {
	return func(yield func(Day) bool) {
		for d := r.CheckIn; !d.After(r.CheckOut); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// EnumerateDays lists the days of r inclusive of both ends.
func EnumerateDays(r DateRange) ([]Day, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	days := make([]Day, 0, r.Len())
	for d := range r.All() {
		days = append(days, d)
	}
	return days, nil
}

// DaySet is an unordered set of days.
type DaySet map[Day]struct{}

func NewDaySet(days ...Day) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s.Add(d)
	}
	return s
}

func (s DaySet) Add(d Day) { s[d] = struct{}{} }

func (s DaySet) Has(d Day) bool {
	_, ok := s[d]
	return ok
}

func (s DaySet) Len() int { return len(s) }

// Sorted returns the members in ascending order.
func (s DaySet) Sorted() []Day {
	days := make([]Day, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	slices.SortFunc(days, Day.Compare)
	return days
}

// Within returns the members that fall inside window.
func (s DaySet) Within(window DateRange) DaySet {
	out := make(DaySet)
	for d := range s {
		if window.Contains(d) {
			out.Add(d)
		}
	}
	return out
}
