package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"evgrid/internal/models"
)

// BookingRepository persists bookings and answers the overlap query the booking
// engine relies on.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository returns repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, slot_id, start_time, end_time, status, price_estimate, vehicle_type, expires_at, actual_start, actual_end, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.SlotID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.PriceEstimate,
		&b.VehicleType,
		&b.ExpiresAt,
		&b.ActualStart,
		&b.ActualEnd,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a booking and fills generated fields.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	const query = `
		INSERT INTO bookings (user_id, slot_id, start_time, end_time, status, price_estimate, vehicle_type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		booking.UserID,
		booking.SlotID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.PriceEstimate,
		booking.VehicleType,
		booking.ExpiresAt,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetByID returns one booking.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return booking, err
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, userID)
}

// ListAll returns every booking, newest first.
func (r *BookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return r.queryBookings(ctx, query)
}

// FindOverlapping returns active bookings on the slot whose interval crosses the
// requested one. Predicate matches the booking engine's exclusivity rule.
func (r *BookingRepository) FindOverlapping(ctx context.Context, slotID int64, start, end time.Time) ([]models.Booking, error) {
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE slot_id = $1
		  AND status IN ('CONFIRMED', 'ONGOING')
		  AND start_time <= $3
		  AND end_time >= $2
	`
	return r.queryBookings(ctx, query, slotID, start, end)
}

// ListConfirmedWithoutSession returns expiration-sweep candidates: CONFIRMED
// bookings no charging session was ever started for.
func (r *BookingRepository) ListConfirmedWithoutSession(ctx context.Context) ([]models.Booking, error) {
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.status = 'CONFIRMED'
		  AND NOT EXISTS (SELECT 1 FROM charging_sessions cs WHERE cs.booking_id = b.id)
	`
	return r.queryBookings(ctx, query)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// TransitionStatus moves a booking from one status to another, guarded in SQL so a
// lost race or repeated sweep is a no-op. Reports whether the row was updated.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id int64, from, to models.BookingStatus) (bool, error) {
	const query = `UPDATE bookings SET status = $3 WHERE id = $1 AND status = $2`
	return r.execTransition(ctx, query, id, from, to)
}

// MarkOngoing flips a CONFIRMED booking to ONGOING and records the actual start.
func (r *BookingRepository) MarkOngoing(ctx context.Context, id int64, startedAt time.Time) (bool, error) {
	const query = `UPDATE bookings SET status = 'ONGOING', actual_start = $2 WHERE id = $1 AND status = 'CONFIRMED'`
	result, err := r.db.ExecContext(ctx, query, id, startedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// MarkCompleted flips an ONGOING booking to COMPLETED and records the actual end.
func (r *BookingRepository) MarkCompleted(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	const query = `UPDATE bookings SET status = 'COMPLETED', actual_end = $2 WHERE id = $1 AND status = 'ONGOING'`
	result, err := r.db.ExecContext(ctx, query, id, endedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (r *BookingRepository) execTransition(ctx context.Context, query string, id int64, from, to models.BookingStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// DeleteBySlot removes all bookings referencing a slot (station cascade delete).
func (r *BookingRepository) DeleteBySlot(ctx context.Context, slotID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE slot_id = $1`, slotID)
	return err
}
