package services

import (
	"errors"
	"fmt"
)

// ErrConcurrencyConflict is returned when a booking write lost a race at the
// transaction boundary and the single retry also failed. Callers surface it
// as "please try again".
var ErrConcurrencyConflict = errors.New("booking conflict, please try again")

// ValidationError covers bad input: past dates, guest counts out of range,
// inactive slots, duplicate bookings, locked or terminal bookings.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CapacityError means the slot cannot take the requested party size.
type CapacityError struct {
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("only %d seats available for this time slot, please select another time", e.Remaining)
}

// AuthorizationError means the actor may not touch this booking.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// StateTransitionError reports an illegal status jump; the booking is left
// unchanged.
type StateTransitionError struct {
	From string
	To   string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot change booking status from %s to %s", e.From, e.To)
}
