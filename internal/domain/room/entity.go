package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Type is the kind of space. It decides how a booking is billed.
type Type string

const (
	TypeStay       Type = "stay"
	TypeConference Type = "conference"
	TypeEvent      Type = "event"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeStay, TypeConference, TypeEvent:
		return true
	}
	return false
}

// Room is a rentable space owned by a host.
type Room struct {
	ID        uuid.UUID       `db:"id"`
	HostID    uuid.UUID       `db:"host_id"`
	Title     string          `db:"title"`
	Type      Type            `db:"type"`
	BasePrice decimal.Decimal `db:"base_price"`

	// Active window. Ignored when IsAlwaysAvailable is set.
	StartDate         *calendar.Day `db:"start_date"`
	EndDate           *calendar.Day `db:"end_date"`
	IsAlwaysAvailable bool          `db:"is_always_available"`
	IsActive          bool          `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Host blocks, loaded separately from room_blocked_days
	BlockedDays []calendar.Day `db:"-"`
}

// CanManage reports whether the user may change the room's availability inputs.
func (r *Room) CanManage(userID uuid.UUID, role user.Role) bool {
	return role == user.RoleAdmin || r.HostID == userID
}

// Bookable checks the room-level guards for a stay: the room is listed and the
// range lies inside its active window.
func (r *Room) Bookable(stay calendar.DateRange) error {
	if !r.IsActive {
		return ErrRoomInactive
	}
	if r.IsAlwaysAvailable {
		return nil
	}
	if r.StartDate != nil && stay.CheckIn.Before(*r.StartDate) {
		return ErrOutsideWindow
	}
	if r.EndDate != nil && stay.CheckOut.After(*r.EndDate) {
		return ErrOutsideWindow
	}
	return nil
}

// Window returns the active window as a range; ok is false when the room has none.
func (r *Room) Window() (calendar.DateRange, bool) {
	if r.IsAlwaysAvailable || r.StartDate == nil || r.EndDate == nil {
		return calendar.DateRange{}, false
	}
	return calendar.DateRange{CheckIn: *r.StartDate, CheckOut: *r.EndDate}, true
}

// RoomResponse represents room in API response
type RoomResponse struct {
	ID                uuid.UUID       `json:"id"`
	HostID            uuid.UUID       `json:"host_id"`
	Title             string          `json:"title"`
	Type              Type            `json:"type"`
	BasePrice         decimal.Decimal `json:"base_price"`
	StartDate         *calendar.Day   `json:"start_date,omitempty"`
	EndDate           *calendar.Day   `json:"end_date,omitempty"`
	IsAlwaysAvailable bool            `json:"is_always_available"`
	IsActive          bool            `json:"is_active"`
	BlockedDays       []calendar.Day  `json:"blocked_days"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (r *Room) ToResponse() RoomResponse {
	blocked := r.BlockedDays
	if blocked == nil {
		blocked = []calendar.Day{}
	}
	return RoomResponse{
		ID:                r.ID,
		HostID:            r.HostID,
		Title:             r.Title,
		Type:              r.Type,
		BasePrice:         r.BasePrice,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		IsAlwaysAvailable: r.IsAlwaysAvailable,
		IsActive:          r.IsActive,
		BlockedDays:       blocked,
		CreatedAt:         r.CreatedAt,
	}
}
