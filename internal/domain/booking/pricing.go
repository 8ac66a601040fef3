package booking

import (
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// ServiceFeeRate is the platform's share charged on top of the subtotal.
var ServiceFeeRate = decimal.New(10, -2)

// PriceBreakdown is what the guest is charged
type PriceBreakdown struct {
	Units          int             `json:"units"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ServiceFeeRate decimal.Decimal `json:"service_fee_rate"`
	ServiceFee     decimal.Decimal `json:"service_fee"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeDuration returns the billable units for a stay. Stays and conference
// rooms bill per started day between check-in and check-out (at least one);
// events bill once no matter how many days they span.
func ComputeDuration(stay calendar.DateRange, roomType room.Type) int {
	if roomType == room.TypeEvent {
		return 1
	}
	units := stay.CheckIn.DaysUntil(stay.CheckOut)
	if units < 1 {
		units = 1
	}
	return units
}

// ComputeBreakdown prices units of basePrice and adds the service fee.
func ComputeBreakdown(basePrice decimal.Decimal, units int, roomType room.Type) PriceBreakdown {
	subtotal := basePrice
	if roomType != room.TypeEvent {
		subtotal = basePrice.Mul(decimal.NewFromInt(int64(units)))
	}
	fee := subtotal.Mul(ServiceFeeRate)

	return PriceBreakdown{
		Units:          units,
		UnitPrice:      basePrice,
		Subtotal:       subtotal,
		ServiceFeeRate: ServiceFeeRate,
		ServiceFee:     fee,
		Total:          subtotal.Add(fee),
	}
}
