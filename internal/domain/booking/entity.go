package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/availability"
	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Status is the lifecycle state of a booking (matches booking_status enum)
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// IsTerminal returns true when no transition may leave the state
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// IsActive returns true when a booking in this state holds its days
func (s Status) IsActive() bool {
	return s != StatusCancelled && s != StatusRejected
}

// PaymentStatus represents payment state (matches payment_status enum)
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentMethod is how the guest intends to pay
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentMobile   PaymentMethod = "mobile"
	PaymentInPerson PaymentMethod = "in-person"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCard, PaymentMobile, PaymentInPerson:
		return true
	}
	return false
}

// Booking is a guest's claim on a room for a range of days
type Booking struct {
	ID       uuid.UUID `db:"id"`
	RoomID   uuid.UUID `db:"room_id"`
	GuestID  uuid.UUID `db:"guest_id"`
	HostID   uuid.UUID `db:"host_id"`
	RoomType room.Type `db:"room_type"`

	CheckIn      calendar.Day   `db:"check_in"`
	CheckOut     calendar.Day   `db:"check_out"`
	CheckInTime  sql.NullString `db:"check_in_time"`
	CheckOutTime sql.NullString `db:"check_out_time"`
	GuestCount   int            `db:"guest_count"`

	Status        Status        `db:"booking_status"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	PaymentMethod PaymentMethod `db:"payment_method"`

	// Price breakdown, flattened
	Units          int             `db:"units"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	ServiceFeeRate decimal.Decimal `db:"service_fee_rate"`
	ServiceFee     decimal.Decimal `db:"service_fee"`
	TotalPrice     decimal.Decimal `db:"total_price"`

	IsCancellable        bool          `db:"is_cancellable"`
	CancellationDeadline *calendar.Day `db:"cancellation_deadline"`

	// Cancellation details, set by cancel and reject
	CancelledAt        sql.NullTime        `db:"cancelled_at"`
	CancelledBy        uuid.NullUUID       `db:"cancelled_by"`
	CancellationReason sql.NullString      `db:"cancellation_reason"`
	RefundAmount       decimal.NullDecimal `db:"refund_amount"`
	RefundPercentage   sql.NullInt32       `db:"refund_percentage"`

	ConfirmedAt sql.NullTime `db:"confirmed_at"`
	PaidAt      sql.NullTime `db:"paid_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// Stay returns the occupied range
func (b *Booking) Stay() calendar.DateRange {
	return calendar.DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// Occupancy is the booking as the availability index sees it
func (b *Booking) Occupancy() availability.Occupancy {
	return availability.Occupancy{
		BookingID: b.ID,
		CheckIn:   b.CheckIn,
		CheckOut:  b.CheckOut,
		Status:    string(b.Status),
		Active:    b.IsActive(),
	}
}

func (b *Booking) Breakdown() PriceBreakdown {
	return PriceBreakdown{
		Units:          b.Units,
		UnitPrice:      b.UnitPrice,
		Subtotal:       b.Subtotal,
		ServiceFeeRate: b.ServiceFeeRate,
		ServiceFee:     b.ServiceFee,
		Total:          b.TotalPrice,
	}
}

func (b *Booking) applyBreakdown(p PriceBreakdown) {
	b.Units = p.Units
	b.UnitPrice = p.UnitPrice
	b.Subtotal = p.Subtotal
	b.ServiceFeeRate = p.ServiceFeeRate
	b.ServiceFee = p.ServiceFee
	b.TotalPrice = p.Total
}

// CancellationResponse is present once a booking was cancelled or rejected
type CancellationResponse struct {
	CancelledAt      time.Time       `json:"cancelled_at"`
	CancelledBy      *uuid.UUID      `json:"cancelled_by,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	RefundPercentage int             `json:"refund_percentage"`
}

// BookingResponse represents booking in API response
type BookingResponse struct {
	ID                   uuid.UUID             `json:"id"`
	RoomID               uuid.UUID             `json:"room_id"`
	GuestID              uuid.UUID             `json:"guest_id"`
	HostID               uuid.UUID             `json:"host_id"`
	RoomType             room.Type             `json:"room_type"`
	CheckIn              calendar.Day          `json:"check_in"`
	CheckOut             calendar.Day          `json:"check_out"`
	CheckInTime          string                `json:"check_in_time,omitempty"`
	CheckOutTime         string                `json:"check_out_time,omitempty"`
	GuestCount           int                   `json:"guest_count"`
	Status               Status                `json:"booking_status"`
	PaymentStatus        PaymentStatus         `json:"payment_status"`
	PaymentMethod        PaymentMethod         `json:"payment_method"`
	TotalPrice           decimal.Decimal       `json:"total_price"`
	PriceBreakdown       PriceBreakdown        `json:"price_breakdown"`
	IsCancellable        bool                  `json:"is_cancellable"`
	CancellationDeadline *calendar.Day         `json:"cancellation_deadline,omitempty"`
	Cancellation         *CancellationResponse `json:"cancellation,omitempty"`
	ConfirmedAt          *time.Time            `json:"confirmed_at,omitempty"`
	PaidAt               *time.Time            `json:"paid_at,omitempty"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

func (b *Booking) ToResponse() BookingResponse {
	resp := BookingResponse{
		ID:                   b.ID,
		RoomID:               b.RoomID,
		GuestID:              b.GuestID,
		HostID:               b.HostID,
		RoomType:             b.RoomType,
		CheckIn:              b.CheckIn,
		CheckOut:             b.CheckOut,
		CheckInTime:          b.CheckInTime.String,
		CheckOutTime:         b.CheckOutTime.String,
		GuestCount:           b.GuestCount,
		Status:               b.Status,
		PaymentStatus:        b.PaymentStatus,
		PaymentMethod:        b.PaymentMethod,
		TotalPrice:           b.TotalPrice,
		PriceBreakdown:       b.Breakdown(),
		IsCancellable:        b.IsCancellable,
		CancellationDeadline: b.CancellationDeadline,
		ConfirmedAt:          nullTimePtr(b.ConfirmedAt),
		PaidAt:               nullTimePtr(b.PaidAt),
		CompletedAt:          nullTimePtr(b.CompletedAt),
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}

	if b.CancelledAt.Valid {
		c := &CancellationResponse{
			CancelledAt:      b.CancelledAt.Time,
			Reason:           b.CancellationReason.String,
			RefundAmount:     b.RefundAmount.Decimal,
			RefundPercentage: int(b.RefundPercentage.Int32),
		}
		if b.CancelledBy.Valid {
			id := b.CancelledBy.UUID
			c.CancelledBy = &id
		}
		resp.Cancellation = c
	}

	return resp
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
