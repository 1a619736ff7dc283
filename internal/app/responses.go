package app

import (
	"time"

	"github.com/cinepass/reservation-service/internal/domain"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationErrorResponse struct {
	ErrorResponse
	ValidationErrors []ValidationError `json:"validation_errors"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// SeatConflictResponse is the 409 payload: the client should re-query
// availability and retry with different seats.
type SeatConflictResponse struct {
	ErrorResponse
	BookedSeatIDs []int `json:"booked_seat_ids"`
}

type CreateReservationRequest struct {
	ShowtimeID int   `json:"showtime_id" validate:"required,gt=0"`
	SeatIDs    []int `json:"seat_ids" validate:"required,min=1,unique,dive,gt=0"`
}

type CreateReservationResponse struct {
	Message       string `json:"message"`
	ReservationID int    `json:"reservation_id"`
}

type ReservationSummary struct {
	ReservationID int       `json:"reservation_id"`
	UserID        int       `json:"user_id,omitempty"`
	ShowtimeID    int       `json:"showtime_id"`
	Status        string    `json:"status"`
	SeatIDs       []int     `json:"seat_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReservationsResponse struct {
	Reservations []ReservationSummary `json:"reservations"`
	Metadata     Metadata             `json:"metadata"`
}

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	PageSize     int `json:"page_size"`
	TotalRecords int `json:"total_records"`
}

type BookedSeatsResponse struct {
	BookedSeatIDs []int `json:"booked_seat_ids"`
}

type StatsResponse struct {
	TotalReservations     int `json:"total_reservations"`
	ActiveReservations    int `json:"active_reservations"`
	CancelledReservations int `json:"cancelled_reservations"`
	TotalSeatsBooked      int `json:"total_seats_booked"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"system_info"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func toReservationSummaries(summaries []domain.ReservationSummary, includeUserID bool) []ReservationSummary {
	reservationSummaries := make([]ReservationSummary, len(summaries))

	for i, v := range summaries {
		summary := &reservationSummaries[i]

		summary.ReservationID = v.ReservationID
		summary.ShowtimeID = v.ShowtimeID
		summary.Status = string(v.Status)
		summary.SeatIDs = v.SeatIDs
		summary.CreatedAt = v.CreatedAt

		if includeUserID {
			summary.UserID = v.UserID
		}
	}

	return reservationSummaries
}

func toApiMetadata(metadata *domain.Metadata) Metadata {
	return Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
