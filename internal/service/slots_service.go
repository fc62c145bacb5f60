package service

import (
	"context"

	"go.uber.org/zap"

	"evgrid/internal/models"
)

// SlotsService exposes slot listing and the guarded status-update path.
type SlotsService struct {
	slots    SlotStore
	stations StationStore
	notifier Notifier
	logger   *zap.Logger
}

// NewSlotsService builds service.
func NewSlotsService(slots SlotStore, stations StationStore, notifier Notifier, logger *zap.Logger) *SlotsService {
	return &SlotsService{slots: slots, stations: stations, notifier: notifier, logger: logger}
}

// CreateSlot attaches a new slot to a station. New slots start AVAILABLE.
func (s *SlotsService) CreateSlot(ctx context.Context, slot *models.ChargerSlot) (*models.ChargerSlot, error) {
	if _, err := s.stations.GetByID(ctx, slot.StationID); err != nil {
		return nil, err
	}
	slot.Status = models.SlotStatusAvailable
	return s.slots.Create(ctx, slot)
}

// GetSlot returns one slot.
func (s *SlotsService) GetSlot(ctx context.Context, id int64) (*models.ChargerSlot, error) {
	return s.slots.GetByID(ctx, id)
}

// ListSlotsByStation returns all slots for a station.
func (s *SlotsService) ListSlotsByStation(ctx context.Context, stationID int64) ([]models.ChargerSlot, error) {
	if _, err := s.stations.GetByID(ctx, stationID); err != nil {
		return nil, err
	}
	return s.slots.ListByStation(ctx, stationID)
}

// ListAvailableSlots returns a station's AVAILABLE slots.
func (s *SlotsService) ListAvailableSlots(ctx context.Context, stationID int64) ([]models.ChargerSlot, error) {
	if _, err := s.stations.GetByID(ctx, stationID); err != nil {
		return nil, err
	}
	return s.slots.ListByStationAndStatus(ctx, stationID, models.SlotStatusAvailable)
}

// UpdateSlotStatus performs a single optimistic status write against the current
// version. On a version conflict the error surfaces to the caller, who re-reads
// and retries.
func (s *SlotsService) UpdateSlotStatus(ctx context.Context, slotID int64, status models.SlotStatus) (*models.ChargerSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	updated, err := s.slots.UpdateStatus(ctx, slotID, status, slot.Version)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifySlotStatusChange(updated.StationID, updated)
	}
	return updated, nil
}
