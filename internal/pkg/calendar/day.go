// Package calendar holds the day arithmetic used for availability.
// Every Day is a UTC calendar date; nothing here looks at the local zone.
package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Layout is the wire format of a Day.
const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid calendar day")

// Day is a date with time-of-day stripped. The zero value is not a valid day.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay builds a Day, normalising overflow the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return ToDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ToDay truncates t to its UTC calendar date.
func ToDay(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{year: y, month: m, day: d}
}

// Today returns the current UTC day.
func Today() Day {
	return ToDay(time.Now())
}

// ParseDay accepts either YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDay(s string) (Day, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return ToDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return ToDay(t), nil
	}
	return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b Day) bool {
	return a == b
}

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) Equal(o Day) bool { return d == o }
func (d Day) Before(o Day) bool { return d.Time().Before(o.Time()) }
func (d Day) After(o Day) bool { return d.Time().After(o.Time()) }
func (d Day) AddDays(n int) Day { return NewDay(d.year, d.month, d.day+n) }
func (d Day) String() string { return d.Time().Format(Layout) }
func (d Day) Compare(o Day) int { return d.Time().Compare(o.Time()) }

// Time returns midnight UTC of d.
func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the whole number of days from d to o (negative if o is earlier).
// Both ends are UTC midnights, so the Unix difference is an exact multiple of a day.
func (d Day) DaysUntil(o Day) int {
	return int((o.Time().Unix() - d.Time().Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan reads a Postgres DATE column.
func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		// lib/pq returns DATE columns as midnight in UTC (or with a zero offset),
		// so the wall-clock date is the stored date.
		y, m, dd := v.Date()
		*d = Day{year: y, month: m, day: dd}
		return nil
	case []byte:
		parsed, err := ParseDay(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDay(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Day{}
		return nil
	}
	return fmt.Errorf("calendar: cannot scan %T into Day", src)
}

func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}
