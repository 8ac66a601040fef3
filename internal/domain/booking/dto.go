package booking

import (
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// QuoteRequest asks for the price of a stay without booking it.
type QuoteRequest struct {
	RoomID   string `json:"room_id" validate:"required,uuid"`
	CheckIn  string `json:"check_in" validate:"required,day"`
	CheckOut string `json:"check_out" validate:"required,day"`
}

// CreateBookingRequest represents booking creation request
type CreateBookingRequest struct {
	RoomID        string `json:"room_id" validate:"required,uuid"`
	CheckIn       string `json:"check_in" validate:"required,day"`
	CheckOut      string `json:"check_out" validate:"required,day"`
	CheckInTime   string `json:"check_in_time" validate:"omitempty,clock"`
	CheckOutTime  string `json:"check_out_time" validate:"omitempty,clock"`
	GuestCount    int    `json:"guest_count" validate:"required,min=1,max=500"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

// TransitionRequest is the body of POST /bookings/{id}/transitions
type TransitionRequest struct {
	Transition string `json:"transition" validate:"required,booking_transition"`
	Reason     string `json:"reason" validate:"max=500"`
}

// CleanupRequest is the body of the admin cleanup endpoint
type CleanupRequest struct {
	OlderThanDays int `json:"older_than_days" validate:"min=0,max=3650"`
}

// QuoteResponse is the priced stay
type QuoteResponse struct {
	CheckIn              calendar.Day   `json:"check_in"`
	CheckOut             calendar.Day   `json:"check_out"`
	PriceBreakdown       PriceBreakdown `json:"price_breakdown"`
	IsCancellable        bool           `json:"is_cancellable"`
	CancellationDeadline *calendar.Day  `json:"cancellation_deadline,omitempty"`
}

// CancellationEligibility tells the actor what cancelling now would do
type CancellationEligibility struct {
	CanCancel        bool            `json:"can_cancel"`
	Reason           string          `json:"reason,omitempty"`
	RefundPercentage int             `json:"refund_percentage"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
}

// ListResponse wraps a list of bookings
type ListResponse struct {
	Items []BookingResponse `json:"items"`
	Total int               `json:"total"`
}

func toListResponse(bookings []*Booking) ListResponse {
	items := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, b.ToResponse())
	}
	return ListResponse{Items: items, Total: len(items)}
}
