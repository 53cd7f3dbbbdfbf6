package booking

import (
	"errors"
	"time"
)

// MaxWindowDays bounds how far a single calendar expansion may reach.
const MaxWindowDays = 26 * 7

var (
	// ErrInvalidWindow indicates the calendar window is empty, reversed or unbounded.
	ErrInvalidWindow = errors.New("booking: calendar window requires from <= until")
	// ErrWindowTooLarge indicates the calendar window exceeds MaxWindowDays.
	ErrWindowTooLarge = errors.New("booking: calendar window too large")
)

// Slot describes the booking state of one permitted day.
type Slot struct {
	Day       Day
	Booked    int
	Remaining int
}

// Open reports whether another Spark Moment fits on the slot's day.
func (s Slot) Open() bool {
	return s.Remaining > 0
}

// SessionDays expands the permitted weekdays between from and until inclusive.
func SessionDays(from, until Day) ([]Day, error) {
	if from.IsZero() || until.IsZero() || until.Before(from) {
		return nil, ErrInvalidWindow
	}
	if span := int(until.Time().Sub(from.Time()) / (24 * time.Hour)); span >= MaxWindowDays {
		return nil, ErrWindowTooLarge
	}

	days := make([]Day, 0)
	for current := from; !current.After(until); current = current.AddDays(1) {
		if IsPermittedWeekday(current) {
			days = append(days, current)
		}
	}
	return days, nil
}

// Slots combines SessionDays with per-day booking counts keyed by Day.String().
func Slots(from, until Day, counts map[string]int) ([]Slot, error) {
	days, err := SessionDays(from, until)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(days))
	for _, day := range days {
		booked := counts[day.String()]
		remaining := Capacity - booked
		if remaining < 0 {
			remaining = 0
		}
		slots = append(slots, Slot{Day: day, Booked: booked, Remaining: remaining})
	}
	return slots, nil
}
