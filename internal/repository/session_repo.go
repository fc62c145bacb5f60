package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"evgrid/internal/models"
)

// SessionRepository persists charging sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session for a booking.
func (r *SessionRepository) Create(ctx context.Context, session *models.ChargingSession) (*models.ChargingSession, error) {
	const query = `
		INSERT INTO charging_sessions (booking_id, start_time, energy_kwh, total_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		session.BookingID,
		session.StartTime,
		session.EnergyKwh,
		session.TotalCost,
	).Scan(&session.ID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetByID returns one session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.ChargingSession, error) {
	const query = `
		SELECT id, booking_id, start_time, end_time, energy_kwh, total_cost
		FROM charging_sessions
		WHERE id = $1
	`
	var s models.ChargingSession
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.BookingID, &s.StartTime, &s.EndTime, &s.EnergyKwh, &s.TotalCost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ExistsByBooking reports whether a session was ever created for the booking.
func (r *SessionRepository) ExistsByBooking(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM charging_sessions WHERE booking_id = $1)`, bookingID).Scan(&exists)
	return exists, err
}

// Complete finalizes a session. Guarded on end_time so a repeated stop is rejected.
func (r *SessionRepository) Complete(ctx context.Context, id int64, endTime time.Time, energyKwh, totalCost float64) (bool, error) {
	const query = `
		UPDATE charging_sessions
		SET end_time = $2,
		    energy_kwh = $3,
		    total_cost = $4
		WHERE id = $1 AND end_time IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, endTime, energyKwh, totalCost)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
