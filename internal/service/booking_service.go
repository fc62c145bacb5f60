package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"evgrid/internal/models"
	"evgrid/internal/repository"
)

// statusRetryAttempts bounds the optimistic-lock retry loop on slot status writes.
const statusRetryAttempts = 3

// BookingService enforces the reservation lifecycle: interval validity, slot
// availability, per-slot time-overlap exclusivity and the grace-window expiry.
type BookingService struct {
	bookings BookingStore
	slots    SlotStore
	stations StationStore
	notifier Notifier
	payments PaymentIntents
	logger   *zap.Logger

	grace        time.Duration
	fallbackRate float64
	now          func() time.Time
}

// CreateBookingInput is a validated booking request.
type CreateBookingInput struct {
	UserID      int64
	SlotID      int64
	StartTime   time.Time
	EndTime     time.Time
	VehicleType models.VehicleType
}

// NewBookingService builds the booking engine. grace is the no-show window after
// the booked start, fallbackRate the per-kWh price used when the station has none.
func NewBookingService(
	bookings BookingStore,
	slots SlotStore,
	stations StationStore,
	notifier Notifier,
	payments PaymentIntents,
	grace time.Duration,
	fallbackRate float64,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		slots:        slots,
		stations:     stations,
		notifier:     notifier,
		payments:     payments,
		logger:       logger,
		grace:        grace,
		fallbackRate: fallbackRate,
		now:          time.Now,
	}
}

// CreateBooking validates the request and reserves the slot. The slot transition
// to BOOKED goes through the optimistic version check; a lost race re-validates
// from the availability check, so two concurrent attempts on the same interval
// can never both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	now := s.now()
	if input.StartTime.Before(now) {
		return nil, ErrPastStartTime
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrInvalidInterval
	}

	var lastErr error
	for attempt := 0; attempt < statusRetryAttempts; attempt++ {
		slot, err := s.slots.GetByID(ctx, input.SlotID)
		if err != nil {
			return nil, err
		}
		if slot.Status != models.SlotStatusAvailable {
			return nil, ErrSlotUnavailable
		}

		overlapping, err := s.bookings.FindOverlapping(ctx, slot.ID, input.StartTime, input.EndTime)
		if err != nil {
			return nil, fmt.Errorf("check overlapping bookings: %w", err)
		}
		if len(overlapping) > 0 {
			return nil, ErrSlotConflict
		}

		station, err := s.stations.GetByID(ctx, slot.StationID)
		if err != nil {
			return nil, err
		}

		if input.VehicleType == models.VehicleTypeTruck && slot.DispensaryID != nil {
			dispensary, err := s.stations.GetDispensary(ctx, *slot.DispensaryID)
			if err != nil && !errors.Is(err, repository.ErrDispensaryNotFound) {
				return nil, err
			}
			if dispensary != nil && !dispensary.AcceptsTrucks {
				return nil, ErrVehicleNotSupported
			}
		}

		estimate := s.priceEstimate(station, slot, input)

		// Reserve the slot first; the version check serializes concurrent bookers.
		bookedSlot, err := s.slots.UpdateStatus(ctx, slot.ID, models.SlotStatusBooked, slot.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		expiresAt := input.StartTime.Add(s.grace)
		booking := &models.Booking{
			UserID:        input.UserID,
			SlotID:        slot.ID,
			StartTime:     input.StartTime,
			EndTime:       input.EndTime,
			Status:        models.BookingStatusConfirmed,
			PriceEstimate: estimate,
			VehicleType:   input.VehicleType,
			ExpiresAt:     &expiresAt,
		}
		if _, err := s.bookings.Create(ctx, booking); err != nil {
			if _, revertErr := s.setSlotStatus(ctx, slot.ID, models.SlotStatusAvailable); revertErr != nil {
				s.logger.Error("failed to revert slot after booking insert failure",
					zap.Int64("slot_id", slot.ID), zap.Error(revertErr))
			}
			return nil, fmt.Errorf("persist booking: %w", err)
		}

		if err := s.stations.TouchLastUsed(ctx, station.ID, now); err != nil {
			s.logger.Warn("failed to touch station last used time",
				zap.Int64("station_id", station.ID), zap.Error(err))
		}

		s.requestPaymentIntent(ctx, booking)

		if s.notifier != nil {
			s.notifier.NotifySlotStatusChange(station.ID, bookedSlot)
			s.notifier.NotifyUserBookingUpdate(booking.UserID, booking)
		}
		return booking, nil
	}

	return nil, lastErr
}

func (s *BookingService) priceEstimate(station *models.Station, slot *models.ChargerSlot, input CreateBookingInput) float64 {
	rate := s.fallbackRate
	if station.PricePerKwh > 0 {
		rate = station.PricePerKwh
	}
	if input.VehicleType == models.VehicleTypeTruck && station.TruckPriceKwh != nil {
		rate = *station.TruckPriceKwh
	}
	hours := float64(input.EndTime.Sub(input.StartTime)/time.Minute) / 60.0
	return hours * slot.PowerKw * rate
}

// CancelBooking cancels a CONFIRMED booking and releases its slot. Any other
// source status is an invalid transition.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrInvalidStateTransition
	}

	ok, err := s.bookings.TransitionStatus(ctx, booking.ID, models.BookingStatusConfirmed, models.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStateTransition
	}
	booking.Status = models.BookingStatusCancelled

	slot, err := s.setSlotStatus(ctx, booking.SlotID, models.SlotStatusAvailable)
	if err != nil {
		s.logger.Error("failed to release slot after cancellation",
			zap.Int64("slot_id", booking.SlotID), zap.Error(err))
	} else if s.notifier != nil {
		s.notifier.NotifySlotStatusChange(slot.StationID, slot)
	}
	if s.notifier != nil {
		s.notifier.NotifyUserBookingUpdate(booking.UserID, booking)
	}
	return booking, nil
}

// ExpireOverdueBookings sweeps CONFIRMED bookings whose grace window elapsed with
// no charging session and reverts their slots. Errors on one booking are logged
// and the sweep continues; re-running on an already-expired set is a no-op.
func (s *BookingService) ExpireOverdueBookings(ctx context.Context) (int, error) {
	candidates, err := s.bookings.ListConfirmedWithoutSession(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expiration candidates: %w", err)
	}

	now := s.now()
	expired := 0
	for i := range candidates {
		booking := &candidates[i]

		deadline := booking.StartTime.Add(s.grace)
		if booking.ExpiresAt != nil {
			deadline = *booking.ExpiresAt
		}
		if !now.After(deadline) {
			continue
		}

		ok, err := s.bookings.TransitionStatus(ctx, booking.ID, models.BookingStatusConfirmed, models.BookingStatusExpired)
		if err != nil {
			s.logger.Error("failed to expire booking", zap.Int64("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		booking.Status = models.BookingStatusExpired
		expired++

		slot, err := s.setSlotStatus(ctx, booking.SlotID, models.SlotStatusAvailable)
		if err != nil {
			s.logger.Error("failed to release slot for expired booking",
				zap.Int64("booking_id", booking.ID), zap.Int64("slot_id", booking.SlotID), zap.Error(err))
		} else if s.notifier != nil {
			s.notifier.NotifySlotStatusChange(slot.StationID, slot)
		}
		if s.notifier != nil {
			s.notifier.NotifyUserBookingUpdate(booking.UserID, booking)
		}
	}
	return expired, nil
}

// GetBooking returns one booking.
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// ListBookingsByUser returns a user's bookings.
func (s *BookingService) ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ListAllBookings returns every booking.
func (s *BookingService) ListAllBookings(ctx context.Context) ([]models.Booking, error) {
	return s.bookings.ListAll(ctx)
}

// setSlotStatus drives a slot to the target status under the optimistic-lock
// discipline, re-reading and retrying on version conflicts.
func (s *BookingService) setSlotStatus(ctx context.Context, slotID int64, status models.SlotStatus) (*models.ChargerSlot, error) {
	return setSlotStatus(ctx, s.slots, slotID, status)
}

func setSlotStatus(ctx context.Context, slots SlotStore, slotID int64, status models.SlotStatus) (*models.ChargerSlot, error) {
	var lastErr error
	for attempt := 0; attempt < statusRetryAttempts; attempt++ {
		slot, err := slots.GetByID(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if slot.Status == status {
			return slot, nil
		}
		updated, err := slots.UpdateStatus(ctx, slotID, status, slot.Version)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *BookingService) requestPaymentIntent(ctx context.Context, booking *models.Booking) {
	if s.payments == nil {
		return
	}
	intentID, err := s.payments.CreateIntent(ctx, booking.ID, booking.PriceEstimate)
	if err != nil {
		s.logger.Warn("payment intent creation failed",
			zap.Int64("booking_id", booking.ID), zap.Error(err))
		return
	}
	if intentID != "" {
		s.logger.Info("payment intent created",
			zap.Int64("booking_id", booking.ID), zap.String("intent_id", intentID))
	}
}
