package domain

import (
	"context"
	"time"
)

// ReservationEvent is the payload published to the message broker when a
// reservation is created or cancelled. It carries enough information for
// downstream consumers (notifications, analytics) to act without querying
// the reservation database.
type ReservationEvent struct {
	ReservationID int       `json:"reservation_id"`
	UserID        int       `json:"user_id"`
	ShowtimeID    int       `json:"showtime_id"`
	SeatIDs       []int     `json:"seat_ids"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, event ReservationEvent) error
	PublishReservationCancelled(ctx context.Context, event ReservationEvent) error
}
