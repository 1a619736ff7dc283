package repository

import (
	"context"
	"errors"

	"github.com/cinepass/reservation-service/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresReservationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReservationRepository(db *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{
		db: db,
	}
}

// Create books all seats of the reservation in a single transaction. The
// availability check runs inside the transaction so a conflict can report
// every contested seat; the UNIQUE (showtime_id, seat_id) constraint on
// reservation_seats is the backstop for bookings that race past the check.
func (p *PostgresReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	seatIDs := reservation.SeatIDs()

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		booked, err := bookedSeatsAmong(ctx, tx, reservation.ShowtimeID, seatIDs)
		if err != nil {
			return err
		}

		if len(booked) > 0 {
			return &domain.SeatsAlreadyBookedError{SeatIDs: booked}
		}

		query := `
			INSERT INTO reservations (user_id, showtime_id, status)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`

		err = tx.QueryRow(
			ctx,
			query,
			reservation.UserID,
			reservation.ShowtimeID,
			reservation.Status).Scan(&reservation.ID, &reservation.CreatedAt)

		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(reservation.Seats))
		for i := range reservation.Seats {
			reservation.Seats[i].ReservationID = reservation.ID

			rows = append(rows, []any{
				reservation.ID,
				reservation.ShowtimeID,
				reservation.Seats[i].SeatID,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"reservation_seats"},
			[]string{"reservation_id", "showtime_id", "seat_id"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Lost the race to a concurrent booking between the check and the
			// insert. The transaction has rolled back already, so look up the
			// winner's seats on a fresh connection.
			booked, lookupErr := bookedSeatsAmong(ctx, p.db, reservation.ShowtimeID, seatIDs)
			if lookupErr != nil {
				return lookupErr
			}

			return &domain.SeatsAlreadyBookedError{SeatIDs: booked}
		}

		return err
	}

	return nil
}

// Cancel releases the reservation's seats and flips its status in one
// transaction. The reservation row is locked first so a cancellation and a
// booking touching the same seats serialize instead of interleaving.
func (p *PostgresReservationRepository) Cancel(ctx context.Context, reservationID, userID int) (*domain.Reservation, error) {
	var reservation domain.Reservation

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT id, user_id, showtime_id, status, created_at
			FROM reservations
			WHERE id = $1
			FOR UPDATE
		`

		err := tx.QueryRow(ctx, query, reservationID).Scan(
			&reservation.ID,
			&reservation.UserID,
			&reservation.ShowtimeID,
			&reservation.Status,
			&reservation.CreatedAt,
		)

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if reservation.UserID != userID {
			return domain.ErrNotReservationOwner
		}

		if reservation.Status == domain.ReservationStatusCancelled {
			return domain.ErrAlreadyCancelled
		}

		// Capture the seats being released before deleting them, so the
		// cancellation event can name them.
		seatRows, err := tx.Query(
			ctx,
			`SELECT reservation_id, showtime_id, seat_id FROM reservation_seats WHERE reservation_id = $1`,
			reservationID,
		)
		if err != nil {
			return err
		}

		reservation.Seats, err = pgx.CollectRows(seatRows, func(row pgx.CollectableRow) (domain.ReservationSeat, error) {
			var seat domain.ReservationSeat
			err := row.Scan(&seat.ReservationID, &seat.ShowtimeID, &seat.SeatID)
			return seat, err
		})
		if err != nil {
			return err
		}

		_, err = tx.Exec(
			ctx,
			`UPDATE reservations SET status = $1 WHERE id = $2`,
			domain.ReservationStatusCancelled,
			reservationID,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM reservation_seats WHERE reservation_id = $1`, reservationID)

		return err
	})

	if err != nil {
		return nil, err
	}

	reservation.Status = domain.ReservationStatusCancelled

	return &reservation, nil
}

func (p *PostgresReservationRepository) GetSummariesByUserId(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			r.id,
			r.user_id,
			r.showtime_id,
			r.status,
			r.created_at,
			COALESCE(array_agg(rs.seat_id ORDER BY rs.seat_id) FILTER (WHERE rs.seat_id IS NOT NULL), '{}')
		FROM reservations r
		LEFT JOIN reservation_seats rs ON rs.reservation_id = r.id
		WHERE r.user_id = $1
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`

	return p.collectSummaries(ctx, query, pagination, userID, pagination.Limit(), pagination.Offset())
}

func (p *PostgresReservationRepository) GetAllSummaries(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			r.id,
			r.user_id,
			r.showtime_id,
			r.status,
			r.created_at,
			COALESCE(array_agg(rs.seat_id ORDER BY rs.seat_id) FILTER (WHERE rs.seat_id IS NOT NULL), '{}')
		FROM reservations r
		LEFT JOIN reservation_seats rs ON rs.reservation_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $1 OFFSET $2
	`

	return p.collectSummaries(ctx, query, pagination, pagination.Limit(), pagination.Offset())
}

// collectSummaries runs a summary query and scans its rows. Each summary row
// aggregates the reservation and its seats in one statement, so status and
// seat list always come from the same snapshot.
func (p *PostgresReservationRepository) collectSummaries(
	ctx context.Context,
	query string,
	pagination domain.Pagination,
	args ...any) ([]domain.ReservationSummary, *domain.Metadata, error) {

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	summaries := make([]domain.ReservationSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.ReservationSummary

		err := rows.Scan(
			&totalRecords,
			&summary.ReservationID,
			&summary.UserID,
			&summary.ShowtimeID,
			&summary.Status,
			&summary.CreatedAt,
			&summary.SeatIDs,
		)
		if err != nil {
			return nil, nil, err
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (p *PostgresReservationRepository) GetBookedSeatIdsByShowtimeId(
	ctx context.Context,
	showtimeID int) ([]int, error) {

	query := `
		SELECT seat_id
		FROM reservation_seats
		WHERE showtime_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatIDs := make([]int, 0)

	for rows.Next() {
		var seatID int

		if err := rows.Scan(&seatID); err != nil {
			return nil, err
		}

		seatIDs = append(seatIDs, seatID)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seatIDs, nil
}

func (p *PostgresReservationRepository) GetStats(ctx context.Context) (*domain.ReservationStats, error) {
	// A single statement, so all four counts come from the same snapshot.
	query := `
		SELECT
			(SELECT COUNT(*) FROM reservations),
			(SELECT COUNT(*) FROM reservations WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM reservations WHERE status = 'CANCELLED'),
			(SELECT COUNT(*) FROM reservation_seats)
	`

	var stats domain.ReservationStats

	err := p.db.QueryRow(ctx, query).Scan(
		&stats.TotalReservations,
		&stats.ActiveReservations,
		&stats.CancelledReservations,
		&stats.TotalSeatsBooked,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// querier is satisfied by both pgx.Tx and *pgxpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func bookedSeatsAmong(ctx context.Context, q querier, showtimeID int, seatIDs []int) ([]int, error) {
	query := `
		SELECT seat_id
		FROM reservation_seats
		WHERE showtime_id = $1 AND seat_id = ANY($2)
		ORDER BY seat_id
	`

	rows, err := q.Query(ctx, query, showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make([]int, 0)

	for rows.Next() {
		var seatID int

		if err := rows.Scan(&seatID); err != nil {
			return nil, err
		}

		booked = append(booked, seatID)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return booked, nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
