package service

import (
	"context"
	"time"

	"evgrid/internal/models"
)

// SlotStore is the single write path for slot status. Implemented by
// repository.SlotRepository.
type SlotStore interface {
	Create(ctx context.Context, slot *models.ChargerSlot) (*models.ChargerSlot, error)
	GetByID(ctx context.Context, id int64) (*models.ChargerSlot, error)
	ListByStation(ctx context.Context, stationID int64) ([]models.ChargerSlot, error)
	ListByStationAndStatus(ctx context.Context, stationID int64, status models.SlotStatus) ([]models.ChargerSlot, error)
	UpdateStatus(ctx context.Context, slotID int64, status models.SlotStatus, version int64) (*models.ChargerSlot, error)
	DeleteByStation(ctx context.Context, stationID int64) error
}

// BookingStore is implemented by repository.BookingRepository.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	FindOverlapping(ctx context.Context, slotID int64, start, end time.Time) ([]models.Booking, error)
	ListConfirmedWithoutSession(ctx context.Context) ([]models.Booking, error)
	TransitionStatus(ctx context.Context, id int64, from, to models.BookingStatus) (bool, error)
	MarkOngoing(ctx context.Context, id int64, startedAt time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id int64, endedAt time.Time) (bool, error)
	DeleteBySlot(ctx context.Context, slotID int64) error
}

// SessionStore is implemented by repository.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, session *models.ChargingSession) (*models.ChargingSession, error)
	GetByID(ctx context.Context, id int64) (*models.ChargingSession, error)
	ExistsByBooking(ctx context.Context, bookingID int64) (bool, error)
	Complete(ctx context.Context, id int64, endTime time.Time, energyKwh, totalCost float64) (bool, error)
}

// StationStore is implemented by repository.StationRepository.
type StationStore interface {
	Create(ctx context.Context, station *models.Station) (*models.Station, error)
	Update(ctx context.Context, station *models.Station) (*models.Station, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	ListAll(ctx context.Context) ([]models.Station, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Station, error)
	ListPinsInBox(ctx context.Context, swLat, neLat, swLng, neLng float64) ([]models.StationPin, error)
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
	CreateDispensary(ctx context.Context, d *models.Dispensary) (*models.Dispensary, error)
	GetDispensary(ctx context.Context, id int64) (*models.Dispensary, error)
	ListDispensaries(ctx context.Context, stationID int64) ([]models.Dispensary, error)
	DeleteDispensariesByStation(ctx context.Context, stationID int64) error
}

// Notifier pushes fire-and-forget updates to connected clients. Delivery is
// best-effort and must never block a state transition.
type Notifier interface {
	NotifySlotStatusChange(stationID int64, slot *models.ChargerSlot)
	NotifyUserBookingUpdate(userID int64, booking *models.Booking)
}

// PaymentIntents is the boundary to the external payment provider. Booking
// creation is never gated on it.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, bookingID int64, amount float64) (string, error)
}
