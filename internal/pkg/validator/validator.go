package validator

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Validator instance
var validate *validator.Validate

var (
	roomTypes      = []string{"stay", "conference", "event"}
	paymentMethods = []string{"card", "mobile", "in-person"}
	transitions    = []string{"confirm", "reject", "mark_payment_received", "complete", "cancel"}
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(values, fl.Field().String())
	}
}

func registerCustomValidations() {
	// Calendar day, YYYY-MM-DD
	validate.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDay(fl.Field().String())
		return err == nil
	})

	// Wall clock time, HH:MM
	validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})

	// Positive money amount with at most two decimals
	validate.RegisterValidation("decimal_amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return d.IsPositive() && d.Exponent() >= -2
	})

	validate.RegisterValidation("room_type", oneOf(roomTypes))
	validate.RegisterValidation("payment_method", oneOf(paymentMethods))
	validate.RegisterValidation("booking_transition", oneOf(transitions))
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["_"] = err.Error()
		return errors
	}

	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Must be a valid UUID"
		case "day":
			errors[field] = "Dates must be YYYY-MM-DD"
		case "clock":
			errors[field] = "Times must be HH:MM"
		case "decimal_amount":
			errors[field] = "Must be a positive amount with at most two decimals"
		case "room_type":
			errors[field] = "Invalid room type. Must be: " + strings.Join(roomTypes, ", ")
		case "payment_method":
			errors[field] = "Invalid payment method. Must be: " + strings.Join(paymentMethods, ", ")
		case "booking_transition":
			errors[field] = "Invalid transition. Must be: " + strings.Join(transitions, ", ")
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
