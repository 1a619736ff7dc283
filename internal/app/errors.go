package app

import (
	"net/http"
	"time"

	validatorPkg "github.com/go-playground/validator/v10"

	"github.com/cinepass/reservation-service/internal/validator"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	ErrInternalServer       = "The server encountered a problem and could not process your request"
	ErrNotFound             = "The requested resource not found"
	ErrUnauthorizedAccess   = "You must be authenticated to access this resource"
	ErrInvalidToken         = "Invalid or expired authentication token"
	ErrForbidden            = "You do not have permission to access this resource"
	ErrFailedValidation     = "One or more fields have invalid values"
	ErrSeatsAlreadyBooked   = "Seats already booked"
	ErrReservationCancelled = "Reservation is already cancelled"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorizedAccess)
}

func (app *Application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrInvalidToken)
}

func (app *Application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, ErrForbidden)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validatorPkg.ValidationErrors)
	if !ok {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := ValidationErrorResponse{
		ErrorResponse: ErrorResponse{
			Message:   ErrFailedValidation,
			RequestID: middleware.GetReqID(r.Context()),
			Timestamp: time.Now(),
		},
	}

	for _, fieldError := range validationErrors {
		resp.ValidationErrors = append(resp.ValidationErrors, ValidationError{
			Field: fieldError.Field(),
			Issue: validator.ValidationMessage(fieldError),
		})
	}

	err = app.writeJSON(w, http.StatusBadRequest, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) seatConflictResponse(w http.ResponseWriter, r *http.Request, bookedSeatIDs []int) {
	resp := SeatConflictResponse{
		ErrorResponse: ErrorResponse{
			Message:   ErrSeatsAlreadyBooked,
			RequestID: middleware.GetReqID(r.Context()),
			Timestamp: time.Now(),
		},
		BookedSeatIDs: bookedSeatIDs,
	}

	err := app.writeJSON(w, http.StatusConflict, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}
