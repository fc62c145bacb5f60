package repository

import (
	"context"
	"database/sql"
	"errors"

	"evgrid/internal/models"
)

// SlotRepository owns charger slot rows. Slot status is never written outside
// UpdateStatus, which enforces the version check.
type SlotRepository struct {
	db *sql.DB
}

// NewSlotRepository returns repository.
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, station_id, dispensary_id, label, slot_type, connector_type, power_kw, status, version, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*models.ChargerSlot, error) {
	var s models.ChargerSlot
	err := row.Scan(
		&s.ID,
		&s.StationID,
		&s.DispensaryID,
		&s.Label,
		&s.SlotType,
		&s.ConnectorType,
		&s.PowerKw,
		&s.Status,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a slot and fills generated fields.
func (r *SlotRepository) Create(ctx context.Context, slot *models.ChargerSlot) (*models.ChargerSlot, error) {
	const query = `
		INSERT INTO charger_slots (station_id, dispensary_id, label, slot_type, connector_type, power_kw, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		slot.StationID,
		slot.DispensaryID,
		slot.Label,
		slot.SlotType,
		slot.ConnectorType,
		slot.PowerKw,
		slot.Status,
	).Scan(&slot.ID, &slot.Version, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// GetByID returns one slot.
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*models.ChargerSlot, error) {
	const query = `SELECT ` + slotColumns + ` FROM charger_slots WHERE id = $1`
	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	return slot, err
}

// ListByStation returns every slot of a station ordered by label.
func (r *SlotRepository) ListByStation(ctx context.Context, stationID int64) ([]models.ChargerSlot, error) {
	const query = `SELECT ` + slotColumns + ` FROM charger_slots WHERE station_id = $1 ORDER BY label`
	return r.querySlots(ctx, query, stationID)
}

// ListByStationAndStatus filters a station's slots by status.
func (r *SlotRepository) ListByStationAndStatus(ctx context.Context, stationID int64, status models.SlotStatus) ([]models.ChargerSlot, error) {
	const query = `SELECT ` + slotColumns + ` FROM charger_slots WHERE station_id = $1 AND status = $2 ORDER BY label`
	return r.querySlots(ctx, query, stationID, status)
}

func (r *SlotRepository) querySlots(ctx context.Context, query string, args ...any) ([]models.ChargerSlot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.ChargerSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// UpdateStatus commits a status transition only if the presented version is still
// current, bumping the version on success. Returns ErrVersionConflict when the row
// moved on since the caller's read.
func (r *SlotRepository) UpdateStatus(ctx context.Context, slotID int64, status models.SlotStatus, version int64) (*models.ChargerSlot, error) {
	const query = `
		UPDATE charger_slots
		SET status = $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $3
		RETURNING ` + slotColumns
	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, slotID, status, version))
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Zero rows means either a stale version or a missing slot.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM charger_slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSlotNotFound
	}
	return nil, ErrVersionConflict
}

// DeleteByStation removes all slots of a station (station cascade delete).
func (r *SlotRepository) DeleteByStation(ctx context.Context, stationID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM charger_slots WHERE station_id = $1`, stationID)
	return err
}
