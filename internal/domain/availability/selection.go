package availability

import (
	"sync"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Selection is a candidate range a user is holding while availability may change
// underneath it. A conflicting selection is cleared, never kept.
type Selection struct {
	mu        sync.Mutex
	candidate *calendar.DateRange
}

// SelectionUpdate tells the holder what happened to its selection.
type SelectionUpdate struct {
	Candidate       *calendar.DateRange `json:"candidate"`
	Conflict        bool                `json:"conflict"`
	ConflictingDays []calendar.Day      `json:"conflicting_days,omitempty"`
	Cleared         bool                `json:"selection_cleared"`
}

func NewSelection() *Selection {
	return &Selection{}
}

// Set replaces the candidate.
func (s *Selection) Set(candidate calendar.DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = &candidate
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = nil
}

// Current returns the candidate, if any.
func (s *Selection) Current() (calendar.DateRange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return calendar.DateRange{}, false
	}
	return *s.candidate, true
}

// Apply re-checks the candidate against fresh unavailable days and clears it on conflict.
func (s *Selection) Apply(unavailable calendar.DaySet) SelectionUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate == nil {
		return SelectionUpdate{}
	}

	if !HasConflict(*s.candidate, unavailable) {
		c := *s.candidate
		return SelectionUpdate{Candidate: &c}
	}

	update := SelectionUpdate{
		Conflict:        true,
		ConflictingDays: ConflictingDays(*s.candidate, unavailable),
		Cleared:         true,
	}
	s.candidate = nil
	return update
}
