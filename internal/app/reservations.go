package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cinepass/reservation-service/internal/domain"
)

func (app *Application) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	var input CreateReservationRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	caller := mustGetCaller(r)
	reservation := domain.NewReservation(caller.UserID, input.ShowtimeID, input.SeatIDs)

	err = app.reservationRepo.Create(r.Context(), &reservation)
	if err != nil {
		var conflictErr *domain.SeatsAlreadyBookedError

		switch {
		case errors.As(err, &conflictErr):
			app.seatConflictResponse(w, r, conflictErr.SeatIDs)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.invalidateBookedSeatsCache(r.Context(), reservation.ShowtimeID)
	app.publishReservationEvent(r.Context(), reservation, app.events.PublishReservationCreated)

	resp := CreateReservationResponse{
		Message:       "Reservation successful",
		ReservationID: reservation.ID,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	reservationID, err := app.readIDParam(r, "reservationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caller := mustGetCaller(r)

	reservation, err := app.reservationRepo.Cancel(r.Context(), reservationID, caller.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrNotReservationOwner):
			app.forbiddenResponse(w, r)
		case errors.Is(err, domain.ErrAlreadyCancelled):
			app.errorResponse(w, r, http.StatusBadRequest, ErrReservationCancelled)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.invalidateBookedSeatsCache(r.Context(), reservation.ShowtimeID)
	app.publishReservationEvent(r.Context(), *reservation, app.events.PublishReservationCancelled)

	err = app.writeJSON(w, http.StatusOK, map[string]string{"message": "Reservation cancelled"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationsOfUserHandler(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := app.readPagination(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caller := mustGetCaller(r)
	pagination := domain.Pagination{Page: page, PageSize: pageSize}

	summaries, metadata, err := app.reservationRepo.GetSummariesByUserId(r.Context(), caller.UserID, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := ReservationsResponse{
		Reservations: toReservationSummaries(summaries, false),
		Metadata:     toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetAllReservationsHandler(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := app.readPagination(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	pagination := domain.Pagination{Page: page, PageSize: pageSize}

	summaries, metadata, err := app.reservationRepo.GetAllSummaries(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := ReservationsResponse{
		Reservations: toReservationSummaries(summaries, true),
		Metadata:     toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.reservationRepo.GetStats(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := StatsResponse{
		TotalReservations:     stats.TotalReservations,
		ActiveReservations:    stats.ActiveReservations,
		CancelledReservations: stats.CancelledReservations,
		TotalSeatsBooked:      stats.TotalSeatsBooked,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// publishReservationEvent emits a domain event after the transaction has
// committed. Publishing is best-effort: a broker outage must not fail a
// booking that is already durable.
func (app *Application) publishReservationEvent(
	ctx context.Context,
	reservation domain.Reservation,
	publish func(context.Context, domain.ReservationEvent) error) {

	event := domain.ReservationEvent{
		ReservationID: reservation.ID,
		UserID:        reservation.UserID,
		ShowtimeID:    reservation.ShowtimeID,
		SeatIDs:       reservation.SeatIDs(),
		OccurredAt:    time.Now().UTC(),
	}

	if err := publish(ctx, event); err != nil {
		app.logger.Error("failed to publish reservation event", "reservation_id", reservation.ID, "error", err)
	}
}
