package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Day    string `json:"day" validate:"required,day"`
	Clock  string `json:"clock" validate:"omitempty,clock"`
	Amount string `json:"amount" validate:"required,decimal_amount"`
	Type   string `json:"type" validate:"required,room_type"`
	Method string `json:"method" validate:"required,payment_method"`
	Action string `json:"action" validate:"required,booking_transition"`
}

func TestValidateCustomTags(t *testing.T) {
	ok := sample{Day: "2025-06-10", Clock: "14:30", Amount: "3500.50", Type: "stay", Method: "in-person", Action: "mark_payment_received"}
	assert.Nil(t, Validate(&ok))

	bad := sample{Day: "10/06/2025", Clock: "2pm", Amount: "-1", Type: "castle", Method: "cash", Action: "archive"}
	errs := Validate(&bad)
	for _, field := range []string{"day", "clock", "amount", "type", "method", "action"} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, "Dates must be YYYY-MM-DD", errs["day"])
}

func TestDecimalAmountPrecision(t *testing.T) {
	assert.NoError(t, ValidateVar("10.25", "decimal_amount"))
	assert.Error(t, ValidateVar("10.255", "decimal_amount"))
	assert.Error(t, ValidateVar("0", "decimal_amount"))
}
