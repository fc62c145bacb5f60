package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"evgrid/internal/models"
)

// StationRepository handles station and dispensary persistence.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, address, latitude, longitude, owner_id, meta, rating, price_per_kwh, truck_price_per_kwh, operating_hours, last_used_time, created_at, updated_at`

func scanStation(row interface{ Scan(...any) error }) (*models.Station, error) {
	var s models.Station
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Address,
		&s.Latitude,
		&s.Longitude,
		&s.OwnerID,
		&s.Meta,
		&s.Rating,
		&s.PricePerKwh,
		&s.TruckPriceKwh,
		&s.OperatingHours,
		&s.LastUsedTime,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a station.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) (*models.Station, error) {
	const query = `
		INSERT INTO stations (name, address, latitude, longitude, owner_id, meta, rating, price_per_kwh, truck_price_per_kwh, operating_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		station.Name,
		station.Address,
		station.Latitude,
		station.Longitude,
		station.OwnerID,
		station.Meta,
		station.Rating,
		station.PricePerKwh,
		station.TruckPriceKwh,
		station.OperatingHours,
	).Scan(&station.ID, &station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return station, nil
}

// Update rewrites mutable station metadata.
func (r *StationRepository) Update(ctx context.Context, station *models.Station) (*models.Station, error) {
	const query = `
		UPDATE stations
		SET name = $2,
		    address = $3,
		    latitude = $4,
		    longitude = $5,
		    meta = $6,
		    rating = $7,
		    price_per_kwh = $8,
		    truck_price_per_kwh = $9,
		    operating_hours = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		station.ID,
		station.Name,
		station.Address,
		station.Latitude,
		station.Longitude,
		station.Meta,
		station.Rating,
		station.PricePerKwh,
		station.TruckPriceKwh,
		station.OperatingHours,
	).Scan(&station.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return station, nil
}

// Delete removes a station row.
func (r *StationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStationNotFound
	}
	return nil
}

// GetByID returns one station.
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	station, err := scanStation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	return station, err
}

// ListAll returns every station.
func (r *StationRepository) ListAll(ctx context.Context) ([]models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations ORDER BY id`
	return r.queryStations(ctx, query)
}

// ListByOwner returns stations belonging to one owner.
func (r *StationRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE owner_id = $1 ORDER BY id`
	return r.queryStations(ctx, query, ownerID)
}

// ListByIDs loads full rows for the given ids.
func (r *StationRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Station, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE id = ANY($1)`
	return r.queryStations(ctx, query, ids)
}

func (r *StationRepository) queryStations(ctx context.Context, query string, args ...any) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *station)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// ListPinsInBox returns lightweight pins for every station inside the bounding box.
// Kept deliberately narrow so wide viewports never materialize full rows.
func (r *StationRepository) ListPinsInBox(ctx context.Context, swLat, neLat, swLng, neLng float64) ([]models.StationPin, error) {
	const query = `
		SELECT id, latitude, longitude
		FROM stations
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`
	rows, err := r.db.QueryContext(ctx, query, swLat, neLat, swLng, neLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pins []models.StationPin
	for rows.Next() {
		var pin models.StationPin
		if err := rows.Scan(&pin.ID, &pin.Latitude, &pin.Longitude); err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pins, nil
}

// TouchLastUsed stamps the station's last activity time.
func (r *StationRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE stations SET last_used_time = $2, updated_at = NOW() WHERE id = $1`, id, at)
	return err
}

// CreateDispensary inserts a power cabinet for a station.
func (r *StationRepository) CreateDispensary(ctx context.Context, d *models.Dispensary) (*models.Dispensary, error) {
	const query = `
		INSERT INTO dispensaries (station_id, name, total_power_kw, accepts_trucks)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, d.StationID, d.Name, d.TotalPowerKw, d.AcceptsTrucks).Scan(&d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDispensary returns one dispensary.
func (r *StationRepository) GetDispensary(ctx context.Context, id int64) (*models.Dispensary, error) {
	const query = `SELECT id, station_id, name, total_power_kw, accepts_trucks FROM dispensaries WHERE id = $1`
	var d models.Dispensary
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.StationID, &d.Name, &d.TotalPowerKw, &d.AcceptsTrucks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDispensaryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDispensaries returns a station's dispensaries.
func (r *StationRepository) ListDispensaries(ctx context.Context, stationID int64) ([]models.Dispensary, error) {
	const query = `SELECT id, station_id, name, total_power_kw, accepts_trucks FROM dispensaries WHERE station_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispensaries []models.Dispensary
	for rows.Next() {
		var d models.Dispensary
		if err := rows.Scan(&d.ID, &d.StationID, &d.Name, &d.TotalPowerKw, &d.AcceptsTrucks); err != nil {
			return nil, err
		}
		dispensaries = append(dispensaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dispensaries, nil
}

// DeleteDispensariesByStation removes a station's dispensaries (cascade delete).
func (r *StationRepository) DeleteDispensariesByStation(ctx context.Context, stationID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dispensaries WHERE station_id = $1`, stationID)
	return err
}
