package earnings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAvailable Status = "available"
	// StatusReversed marks a fully refunded booking; it counts towards nothing.
	StatusReversed Status = "reversed"
)

type Earning struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	HostID      uuid.UUID       `db:"host_id" json:"host_id"`
	BookingID   uuid.UUID       `db:"booking_id" json:"booking_id"`
	Gross       decimal.Decimal `db:"gross_amount" json:"gross_amount"`
	PlatformFee decimal.Decimal `db:"platform_fee" json:"platform_fee"`
	Net         decimal.Decimal `db:"net_amount" json:"net_amount"`
	Status      Status          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type Summary struct {
	Pending   decimal.Decimal `db:"pending" json:"pending"`
	Available decimal.Decimal `db:"available" json:"available"`
}
