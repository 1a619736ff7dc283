package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrNotReservationOwner = errors.New("reservation belongs to another user")
	ErrAlreadyCancelled    = errors.New("reservation is already cancelled")
)

// SeatsAlreadyBookedError is returned by the booking transaction when at
// least one requested seat already has an active commitment for the showtime.
type SeatsAlreadyBookedError struct {
	SeatIDs []int
}

func (e *SeatsAlreadyBookedError) Error() string {
	return fmt.Sprintf("seat(s) already booked for this showtime: %v", e.SeatIDs)
}
