package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"evgrid/internal/models"
)

// ActiveSessionCache mirrors running sessions into a fast store for live
// dashboards. Failures are logged and never affect the session lifecycle.
type ActiveSessionCache interface {
	Save(ctx context.Context, entry ActiveSessionEntry) error
	Delete(ctx context.Context, bookingID int64) error
}

// ActiveSessionEntry is the cached shape of a running session.
type ActiveSessionEntry struct {
	SessionID int64     `json:"session_id"`
	BookingID int64     `json:"booking_id"`
	SlotID    int64     `json:"slot_id"`
	StationID int64     `json:"station_id"`
	UserID    int64     `json:"user_id"`
	StartTime time.Time `json:"start_time"`
}

// ChargingService transitions bookings into metered sessions and bills them on
// stop at the flat per-kWh rate.
type ChargingService struct {
	bookings BookingStore
	sessions SessionStore
	slots    SlotStore
	cache    ActiveSessionCache
	notifier Notifier
	logger   *zap.Logger

	flatRate float64
	now      func() time.Time
}

// NewChargingService builds the session tracker.
func NewChargingService(
	bookings BookingStore,
	sessions SessionStore,
	slots SlotStore,
	cache ActiveSessionCache,
	notifier Notifier,
	flatRate float64,
	logger *zap.Logger,
) *ChargingService {
	return &ChargingService{
		bookings: bookings,
		sessions: sessions,
		slots:    slots,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		flatRate: flatRate,
		now:      time.Now,
	}
}

// StartCharging moves a CONFIRMED booking to ONGOING, the slot to CHARGING, and
// opens the session. At most one session ever exists per booking.
func (s *ChargingService) StartCharging(ctx context.Context, bookingID int64) (*models.ChargingSession, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrBookingNotConfirmed
	}

	exists, err := s.sessions.ExistsByBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSessionExists
	}

	now := s.now()
	ok, err := s.bookings.MarkOngoing(ctx, booking.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBookingNotConfirmed
	}
	booking.Status = models.BookingStatusOngoing
	booking.ActualStart = &now

	slot, err := setSlotStatus(ctx, s.slots, booking.SlotID, models.SlotStatusCharging)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, &models.ChargingSession{
		BookingID: booking.ID,
		StartTime: now,
		EnergyKwh: 0,
		TotalCost: 0,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cacheErr := s.cache.Save(ctx, ActiveSessionEntry{
			SessionID: session.ID,
			BookingID: booking.ID,
			SlotID:    slot.ID,
			StationID: slot.StationID,
			UserID:    booking.UserID,
			StartTime: now,
		})
		if cacheErr != nil {
			s.logger.Warn("failed to cache active session", zap.Error(cacheErr))
		}
	}

	if s.notifier != nil {
		s.notifier.NotifySlotStatusChange(slot.StationID, slot)
		s.notifier.NotifyUserBookingUpdate(booking.UserID, booking)
	}
	return session, nil
}

// StopCharging closes a running session, computing energy from elapsed time and
// slot power, billing at the flat rate. The booking completes and the slot
// becomes available again.
func (s *ChargingService) StopCharging(ctx context.Context, sessionID int64) (*models.ChargingSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, ErrSessionAlreadyEnded
	}

	booking, err := s.bookings.GetByID(ctx, session.BookingID)
	if err != nil {
		return nil, err
	}
	slot, err := s.slots.GetByID(ctx, booking.SlotID)
	if err != nil {
		return nil, err
	}

	end := s.now()
	hours := float64(end.Sub(session.StartTime)/time.Minute) / 60.0
	energyKwh := hours * slot.PowerKw
	cost := energyKwh * s.flatRate

	ok, err := s.sessions.Complete(ctx, session.ID, end, energyKwh, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionAlreadyEnded
	}
	session.EndTime = &end
	session.EnergyKwh = energyKwh
	session.TotalCost = cost

	if _, err := s.bookings.MarkCompleted(ctx, booking.ID, end); err != nil {
		s.logger.Error("failed to complete booking", zap.Int64("booking_id", booking.ID), zap.Error(err))
	} else {
		booking.Status = models.BookingStatusCompleted
		booking.ActualEnd = &end
	}

	released, err := setSlotStatus(ctx, s.slots, slot.ID, models.SlotStatusAvailable)
	if err != nil {
		s.logger.Error("failed to release slot after charging",
			zap.Int64("slot_id", slot.ID), zap.Error(err))
		released = slot
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, booking.ID); err != nil {
			s.logger.Warn("failed to drop active session cache", zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.NotifySlotStatusChange(released.StationID, released)
		s.notifier.NotifyUserBookingUpdate(booking.UserID, booking)
	}
	return session, nil
}
