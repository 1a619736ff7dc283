package domain

import (
	"context"
	"time"
)

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID         int
	UserID     int
	ShowtimeID int
	Status     ReservationStatus
	Seats      []ReservationSeat
	CreatedAt  time.Time
}

// ReservationSeat is a seat commitment: it binds one seat, for one showtime,
// to its owning reservation. ShowtimeID is denormalized from the reservation
// so the (showtime_id, seat_id) uniqueness constraint can live on this row.
type ReservationSeat struct {
	ReservationID int
	ShowtimeID    int
	SeatID        int
}

type ReservationSummary struct {
	ReservationID int
	UserID        int
	ShowtimeID    int
	Status        ReservationStatus
	SeatIDs       []int
	CreatedAt     time.Time
}

type ReservationStats struct {
	TotalReservations     int
	ActiveReservations    int
	CancelledReservations int
	TotalSeatsBooked      int
}

func NewReservation(userID, showtimeID int, seatIDs []int) Reservation {
	seats := make([]ReservationSeat, len(seatIDs))
	for i, seatID := range seatIDs {
		seats[i] = ReservationSeat{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
		}
	}

	return Reservation{
		UserID:     userID,
		ShowtimeID: showtimeID,
		Status:     ReservationStatusActive,
		Seats:      seats,
	}
}

func (r Reservation) SeatIDs() []int {
	seatIDs := make([]int, len(r.Seats))
	for i, seat := range r.Seats {
		seatIDs[i] = seat.SeatID
	}

	return seatIDs
}

// ReservationRepository is the single source of truth for seat commitments.
// Showtime and seat IDs are opaque references owned by the catalog service;
// the repository never verifies that they exist, it only guarantees that no
// two active reservations ever hold the same seat for the same showtime.
type ReservationRepository interface {
	// Create books the reservation atomically: either every seat commits or
	// none does. It returns SeatsAlreadyBookedError when any requested seat
	// already has an active commitment for the showtime.
	Create(ctx context.Context, reservation *Reservation) error

	// Cancel flips the reservation to CANCELLED and deletes its seat
	// commitments in the same transaction, freeing the seats for rebooking.
	// It returns ErrRecordNotFound, ErrNotReservationOwner or
	// ErrAlreadyCancelled for the corresponding failure modes, and the
	// cancelled reservation (with the seats it held) on success.
	Cancel(ctx context.Context, reservationID, userID int) (*Reservation, error)

	GetSummariesByUserId(ctx context.Context, userID int, pagination Pagination) ([]ReservationSummary, *Metadata, error)
	GetAllSummaries(ctx context.Context, pagination Pagination) ([]ReservationSummary, *Metadata, error)
	GetBookedSeatIdsByShowtimeId(ctx context.Context, showtimeID int) ([]int, error)
	GetStats(ctx context.Context) (*ReservationStats, error)
}
