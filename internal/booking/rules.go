package booking

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Capacity is the number of Spark Moments a single day can hold.
	Capacity = 2
	// MaxDescriptionLength is the maximum description length in characters.
	MaxDescriptionLength = 50
)

// PermittedWeekdays lists the days of the week on which Spark Moments run.
var PermittedWeekdays = []time.Weekday{time.Tuesday, time.Thursday}

// Reason identifies why a booking was refused.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInvalidDescription Reason = "invalid_description"
	ReasonInvalidWeekday     Reason = "invalid_weekday"
	ReasonCapacityExceeded   Reason = "capacity_exceeded"
)

// Messages surfaced verbatim to the person booking.
const (
	MessageInvalidDescription = "Data e descrição obrigatórios (máximo de 50 caracteres)."
	MessageInvalidWeekday     = "O Momento Faísca só ocorre às Terças e Quintas!"
	MessageCapacityExceeded   = "Este dia já está cheio! Escolha outro."
)

var messages = map[Reason]string{
	ReasonInvalidDescription: MessageInvalidDescription,
	ReasonInvalidWeekday:     MessageInvalidWeekday,
	ReasonCapacityExceeded:   MessageCapacityExceeded,
}

// Message returns the user facing text for r.
func (r Reason) Message() string {
	return messages[r]
}

var (
	// ErrInvalidDescription matches rejections caused by the description rule.
	ErrInvalidDescription = &RejectionError{Reason: ReasonInvalidDescription, Message: MessageInvalidDescription}
	// ErrInvalidWeekday matches rejections caused by the weekday rule.
	ErrInvalidWeekday = &RejectionError{Reason: ReasonInvalidWeekday, Message: MessageInvalidWeekday}
	// ErrCapacityExceeded matches rejections caused by a full day.
	ErrCapacityExceeded = &RejectionError{Reason: ReasonCapacityExceeded, Message: MessageCapacityExceeded}
)

// RejectionError reports a refused booking. Two rejections match under errors.Is
// when their reasons are equal.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Is reports whether target is a rejection with the same reason.
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Reason == t.Reason
}

// Reject builds the rejection error for reason.
func Reject(reason Reason) *RejectionError {
	return &RejectionError{Reason: reason, Message: reason.Message()}
}

// Decision is the outcome of evaluating a proposed booking.
type Decision struct {
	Admitted bool
	Reason   Reason
	Message  string
}

// Err returns the rejection as an error, or nil when the booking was admitted.
func (d Decision) Err() error {
	if d.Admitted {
		return nil
	}
	return &RejectionError{Reason: d.Reason, Message: d.Message}
}

func admit() Decision {
	return Decision{Admitted: true}
}

func reject(reason Reason) Decision {
	return Decision{Reason: reason, Message: reason.Message()}
}

// Evaluate decides whether a Spark Moment on proposed with the given description
// may be booked when existingCount moments already exist for that day.
//
// Rules apply in order: description, weekday, capacity. The first failing rule
// determines the reason.
func Evaluate(proposed Day, description string, existingCount int) Decision {
	if !ValidDescription(description) {
		return reject(ReasonInvalidDescription)
	}
	if proposed.IsZero() || !IsPermittedWeekday(proposed) {
		return reject(ReasonInvalidWeekday)
	}
	if existingCount >= Capacity {
		return reject(ReasonCapacityExceeded)
	}
	return admit()
}

// ValidDescription reports whether description is non-blank and at most
// MaxDescriptionLength characters once surrounding whitespace is removed.
func ValidDescription(description string) bool {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return false
	}
	return utf8.RuneCountInString(trimmed) <= MaxDescriptionLength
}

// Weekday returns the weekday number of d with Sunday as 0.
func Weekday(d Day) int {
	return int(d.Weekday())
}

// IsPermittedWeekday reports whether Spark Moments run on d's weekday.
func IsPermittedWeekday(d Day) bool {
	wd := d.Weekday()
	for _, permitted := range PermittedWeekdays {
		if wd == permitted {
			return true
		}
	}
	return false
}
