package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// The public availability view is read far more often than seats change, so
// it is served from a short-lived Redis cache. Mutations invalidate the key,
// the TTL covers anything that slips through.
const bookedSeatsCacheTTL = 30 * time.Second

func bookedSeatsCacheKey(showtimeID int) string {
	return fmt.Sprintf("booked_seats:%d", showtimeID)
}

func (app *Application) GetBookedSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if seatIDs, ok := app.cachedBookedSeats(r.Context(), showtimeID); ok {
		err = app.writeJSON(w, http.StatusOK, BookedSeatsResponse{BookedSeatIDs: seatIDs}, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	seatIDs, err := app.reservationRepo.GetBookedSeatIdsByShowtimeId(r.Context(), showtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.cacheBookedSeats(r.Context(), showtimeID, seatIDs)

	err = app.writeJSON(w, http.StatusOK, BookedSeatsResponse{BookedSeatIDs: seatIDs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) cachedBookedSeats(ctx context.Context, showtimeID int) ([]int, bool) {
	cached, err := app.redis.Get(ctx, bookedSeatsCacheKey(showtimeID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			app.logger.Warn("failed to read booked seats cache", "showtime_id", showtimeID, "error", err)
		}
		return nil, false
	}

	var seatIDs []int
	if err := json.Unmarshal(cached, &seatIDs); err != nil {
		app.logger.Warn("malformed booked seats cache entry", "showtime_id", showtimeID, "error", err)
		return nil, false
	}

	return seatIDs, true
}

func (app *Application) cacheBookedSeats(ctx context.Context, showtimeID int, seatIDs []int) {
	payload, err := json.Marshal(seatIDs)
	if err != nil {
		app.logger.Warn("failed to marshal booked seats for cache", "showtime_id", showtimeID, "error", err)
		return
	}

	err = app.redis.Set(ctx, bookedSeatsCacheKey(showtimeID), payload, bookedSeatsCacheTTL).Err()
	if err != nil {
		app.logger.Warn("failed to write booked seats cache", "showtime_id", showtimeID, "error", err)
	}
}

// invalidateBookedSeatsCache is called after bookings and cancellations. The
// cache is an optimization only; failures are logged, never surfaced.
func (app *Application) invalidateBookedSeatsCache(ctx context.Context, showtimeID int) {
	err := app.redis.Del(ctx, bookedSeatsCacheKey(showtimeID)).Err()
	if err != nil {
		app.logger.Warn("failed to invalidate booked seats cache", "showtime_id", showtimeID, "error", err)
	}
}
