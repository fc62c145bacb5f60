package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"evgrid/internal/models"
)

// gunsPerDispensary is how many DC guns a new power cabinet is provisioned with.
const gunsPerDispensary = 2

// StationService handles station metadata, dispensary provisioning and the
// dependent-record teardown on delete.
type StationService struct {
	stations StationStore
	slots    SlotStore
	bookings BookingStore
	logger   *zap.Logger
}

// NewStationService builds service.
func NewStationService(stations StationStore, slots SlotStore, bookings BookingStore, logger *zap.Logger) *StationService {
	return &StationService{stations: stations, slots: slots, bookings: bookings, logger: logger}
}

// DispensaryInput describes a power cabinet added with a new station.
type DispensaryInput struct {
	Name          string  `json:"name"`
	TotalPowerKw  float64 `json:"total_power_kw"`
	AcceptsTrucks bool    `json:"accepts_trucks"`
}

// CreateStationInput is a new station request.
type CreateStationInput struct {
	Station      models.Station
	Dispensaries []DispensaryInput
}

// CreateStation persists the station and provisions each dispensary with two DC
// CCS2 gun slots splitting the cabinet power.
func (s *StationService) CreateStation(ctx context.Context, input CreateStationInput) (*models.Station, error) {
	station, err := s.stations.Create(ctx, &input.Station)
	if err != nil {
		return nil, fmt.Errorf("create station: %w", err)
	}

	for _, di := range input.Dispensaries {
		dispensary, err := s.stations.CreateDispensary(ctx, &models.Dispensary{
			StationID:     station.ID,
			Name:          di.Name,
			TotalPowerKw:  di.TotalPowerKw,
			AcceptsTrucks: di.AcceptsTrucks,
		})
		if err != nil {
			return nil, fmt.Errorf("create dispensary: %w", err)
		}

		powerPerGun := 30.0
		if di.TotalPowerKw > 0 {
			powerPerGun = di.TotalPowerKw / gunsPerDispensary
		}
		for i := 1; i <= gunsPerDispensary; i++ {
			_, err := s.slots.Create(ctx, &models.ChargerSlot{
				StationID:     station.ID,
				DispensaryID:  &dispensary.ID,
				Label:         fmt.Sprintf("%s - Gun %d", di.Name, i),
				SlotType:      models.SlotTypeDC,
				ConnectorType: models.ConnectorCCS2,
				PowerKw:       powerPerGun,
				Status:        models.SlotStatusAvailable,
			})
			if err != nil {
				return nil, fmt.Errorf("provision dispensary slot: %w", err)
			}
		}
	}
	return station, nil
}

// GetStation returns one station.
func (s *StationService) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	return s.stations.GetByID(ctx, id)
}

// ListStations returns every station.
func (s *StationService) ListStations(ctx context.Context) ([]models.Station, error) {
	return s.stations.ListAll(ctx)
}

// ListStationsByOwner returns one owner's stations.
func (s *StationService) ListStationsByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	return s.stations.ListByOwner(ctx, ownerID)
}

// UpdateStation rewrites mutable station metadata.
func (s *StationService) UpdateStation(ctx context.Context, station *models.Station) (*models.Station, error) {
	return s.stations.Update(ctx, station)
}

// DeleteStation removes a station and all dependent records: bookings per slot,
// then slots and dispensaries, then the station itself.
func (s *StationService) DeleteStation(ctx context.Context, id int64) error {
	slots, err := s.slots.ListByStation(ctx, id)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if err := s.bookings.DeleteBySlot(ctx, slot.ID); err != nil {
			return fmt.Errorf("delete bookings for slot %d: %w", slot.ID, err)
		}
	}
	if err := s.slots.DeleteByStation(ctx, id); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	if err := s.stations.DeleteDispensariesByStation(ctx, id); err != nil {
		return fmt.Errorf("delete dispensaries: %w", err)
	}
	if err := s.stations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("station deleted", zap.Int64("station_id", id), zap.Int("slots_removed", len(slots)))
	return nil
}
