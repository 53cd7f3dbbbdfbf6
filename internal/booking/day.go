package booking

import (
	"errors"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// ErrInvalidDay is returned when a calendar date cannot be parsed.
var ErrInvalidDay = errors.New("booking: invalid calendar date")

// Day is a calendar date with no time of day. The zero value is not a valid day.
type Day struct {
	t time.Time
}

// NewDay returns the day for the given calendar components, normalising overflow
// the same way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a YYYY-MM-DD string. The date is interpreted in UTC so its
// weekday never depends on the zone of the machine doing the parsing.
func ParseDay(value string) (Day, error) {
	t, err := time.ParseInLocation(dayLayout, value, time.UTC)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return Day{t: t}, nil
}

// DayFromLocal resolves the calendar date a caller sees for t in t's own
// location, e.g. a date picker value at local midnight in a UTC-3 browser.
func DayFromLocal(t time.Time) Day {
	year, month, day := t.Date()
	return NewDay(year, month, day)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of d.
func (d Day) Time() time.Time { return d.t }

// Weekday returns the day of the week of d, extracted in UTC.
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays returns d shifted by n calendar days.
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Before reports whether d falls strictly before other.
func (d Day) Before(other Day) bool { return d.t.Before(other.t) }

// After reports whether d falls strictly after other.
func (d Day) After(other Day) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same calendar date.
func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

// String formats d as YYYY-MM-DD.
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dayLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
