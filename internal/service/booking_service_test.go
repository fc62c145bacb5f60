package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"evgrid/internal/models"
	"evgrid/internal/repository"
)

type bookingFixture struct {
	svc      *BookingService
	slots    *fakeSlotStore
	bookings *fakeBookingStore
	stations *fakeStationStore
	notifier *fakeNotifier
	payments *fakePayments
	now      time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		slots:    newFakeSlotStore(),
		bookings: newFakeBookingStore(),
		stations: newFakeStationStore(),
		notifier: &fakeNotifier{},
		payments: &fakePayments{},
		now:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewBookingService(
		f.bookings, f.slots, f.stations, f.notifier, f.payments,
		15*time.Minute, 15.0, zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *bookingFixture) seedStationAndSlot(price float64) (*models.Station, *models.ChargerSlot) {
	station := f.stations.add(models.Station{Name: "Central", PricePerKwh: price})
	slot := f.slots.add(models.ChargerSlot{
		StationID:     station.ID,
		Label:         "A1",
		SlotType:      models.SlotTypeDC,
		ConnectorType: models.ConnectorCCS2,
		PowerKw:       50,
		Status:        models.SlotStatusAvailable,
		Version:       1,
	})
	return station, slot
}

func TestCreateBookingReservesSlot(t *testing.T) {
	f := newBookingFixture(t)
	station, slot := f.seedStationAndSlot(12.0)

	start := f.now.Add(time.Hour)
	booking, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:      7,
		SlotID:      slot.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		VehicleType: models.VehicleTypeCar,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if booking.Status != models.BookingStatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", booking.Status)
	}
	// 1h at 50kW, 12.0 per kWh.
	if math.Abs(booking.PriceEstimate-600.0) > 1e-9 {
		t.Errorf("price estimate = %v, want 600", booking.PriceEstimate)
	}
	if booking.ExpiresAt == nil || !booking.ExpiresAt.Equal(start.Add(15*time.Minute)) {
		t.Errorf("expires at = %v, want start + grace", booking.ExpiresAt)
	}
	if got := f.slots.status(slot.ID); got != models.SlotStatusBooked {
		t.Errorf("slot status = %s, want BOOKED", got)
	}
	if len(f.stations.touched) != 1 || f.stations.touched[0] != station.ID {
		t.Errorf("station last-used touch = %v, want [%d]", f.stations.touched, station.ID)
	}
	if amounts := f.payments.amounts(); len(amounts) != 1 || math.Abs(amounts[0]-600.0) > 1e-9 {
		t.Errorf("payment intent amounts = %v, want one of 600", amounts)
	}
	if f.notifier.slotEventCount() == 0 || f.notifier.bookingEventCount() == 0 {
		t.Error("expected slot and booking notifications")
	}
}

func TestCreateBookingPartialHourPricing(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(10.0)

	start := f.now.Add(time.Hour)
	booking, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:      7,
		SlotID:      slot.ID,
		StartTime:   start,
		EndTime:     start.Add(90 * time.Minute),
		VehicleType: models.VehicleTypeCar,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	// 1.5h at 50kW, 10.0 per kWh.
	if math.Abs(booking.PriceEstimate-750.0) > 1e-9 {
		t.Errorf("price estimate = %v, want 750", booking.PriceEstimate)
	}
}

func TestCreateBookingFallbackRate(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(0)

	start := f.now.Add(time.Hour)
	booking, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:      7,
		SlotID:      slot.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		VehicleType: models.VehicleTypeCar,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	// Station has no price; the fallback 15.0 applies.
	if math.Abs(booking.PriceEstimate-750.0) > 1e-9 {
		t.Errorf("price estimate = %v, want 750", booking.PriceEstimate)
	}
}

func TestCreateBookingTruckRate(t *testing.T) {
	f := newBookingFixture(t)
	station, slot := f.seedStationAndSlot(12.0)
	truckRate := 20.0
	station.TruckPriceKwh = &truckRate
	if _, err := f.stations.Update(context.Background(), station); err != nil {
		t.Fatalf("seed station: %v", err)
	}

	start := f.now.Add(time.Hour)
	booking, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:      7,
		SlotID:      slot.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		VehicleType: models.VehicleTypeTruck,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if math.Abs(booking.PriceEstimate-1000.0) > 1e-9 {
		t.Errorf("price estimate = %v, want 1000", booking.PriceEstimate)
	}
}

func TestCreateBookingTruckRejectedByDispensary(t *testing.T) {
	f := newBookingFixture(t)
	station, slot := f.seedStationAndSlot(12.0)
	dispensary := f.stations.addDispensary(models.Dispensary{
		StationID:     station.ID,
		Name:          "Cabinet 1",
		AcceptsTrucks: false,
	})
	slot.DispensaryID = &dispensary.ID
	f.slots.add(*slot)

	start := f.now.Add(time.Hour)
	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:      7,
		SlotID:      slot.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		VehicleType: models.VehicleTypeTruck,
	})
	if !errors.Is(err, ErrVehicleNotSupported) {
		t.Fatalf("err = %v, want ErrVehicleNotSupported", err)
	}
	if got := f.slots.status(slot.ID); got != models.SlotStatusAvailable {
		t.Errorf("slot status = %s, want AVAILABLE", got)
	}
}

func TestCreateBookingRejectsPastStart(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: f.now.Add(-time.Minute),
		EndTime:   f.now.Add(time.Hour),
	})
	if !errors.Is(err, ErrPastStartTime) {
		t.Fatalf("err = %v, want ErrPastStartTime", err)
	}
}

func TestCreateBookingRejectsEmptyInterval(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	start := f.now.Add(time.Hour)
	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start,
	})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
}

func TestCreateBookingSlotNotAvailable(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)
	slot.Status = models.SlotStatusMaintenance
	f.slots.add(*slot)

	start := f.now.Add(time.Hour)
	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}
}

func TestCreateBookingOverlapConflict(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	start := f.now.Add(time.Hour)
	f.bookings.add(models.Booking{
		UserID:    1,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    models.BookingStatusConfirmed,
	})

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"nested", start.Add(15 * time.Minute), start.Add(45 * time.Minute)},
		{"straddles start", start.Add(-30 * time.Minute), start.Add(30 * time.Minute)},
		{"straddles end", start.Add(30 * time.Minute), start.Add(90 * time.Minute)},
		{"touching end", start.Add(time.Hour), start.Add(2 * time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
				UserID:    2,
				SlotID:    slot.ID,
				StartTime: tc.start,
				EndTime:   tc.end,
			})
			if !errors.Is(err, ErrSlotConflict) {
				t.Fatalf("err = %v, want ErrSlotConflict", err)
			}
		})
	}
}

func TestCreateBookingIgnoresInactiveOverlaps(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	start := f.now.Add(time.Hour)
	for _, status := range []models.BookingStatus{
		models.BookingStatusCancelled,
		models.BookingStatusExpired,
		models.BookingStatusCompleted,
	} {
		f.bookings.add(models.Booking{
			UserID:    1,
			SlotID:    slot.ID,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Status:    status,
		})
	}

	if _, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    2,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
}

func TestCreateBookingRetriesVersionConflict(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)
	f.slots.conflictsLeft = 1

	start := f.now.Add(time.Hour)
	if _, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateBooking after one conflict: %v", err)
	}
	if f.slots.updateCalls < 2 {
		t.Errorf("update calls = %d, want at least 2", f.slots.updateCalls)
	}
	if got := f.slots.status(slot.ID); got != models.SlotStatusBooked {
		t.Errorf("slot status = %s, want BOOKED", got)
	}
}

func TestCreateBookingGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)
	f.slots.conflictsLeft = statusRetryAttempts

	start := f.now.Add(time.Hour)
	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestCreateBookingRevertsSlotOnInsertFailure(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)
	f.bookings.createErr = errors.New("insert failed")

	start := f.now.Add(time.Hour)
	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := f.slots.status(slot.ID); got != models.SlotStatusAvailable {
		t.Errorf("slot status = %s, want AVAILABLE after revert", got)
	}
}

// Random interval attempts against one slot: whatever subset is accepted, no two
// active bookings may overlap. The slot is handed back after each acceptance so the
// interval predicate, not the slot status, is what rejects conflicts.
func TestCreateBookingOverlapProperty(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		start := f.now.Add(time.Duration(1+rng.Intn(96)) * 15 * time.Minute)
		end := start.Add(time.Duration(1+rng.Intn(12)) * 15 * time.Minute)

		_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
			UserID:    int64(i),
			SlotID:    slot.ID,
			StartTime: start,
			EndTime:   end,
		})
		switch {
		case err == nil:
			if _, err := setSlotStatus(context.Background(), f.slots, slot.ID, models.SlotStatusAvailable); err != nil {
				t.Fatalf("release slot: %v", err)
			}
		case errors.Is(err, ErrSlotConflict):
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}

	accepted, err := f.bookings.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for i := 0; i < len(accepted); i++ {
		for j := i + 1; j < len(accepted); j++ {
			a, b := accepted[i], accepted[j]
			if !a.StartTime.After(b.EndTime) && !a.EndTime.Before(b.StartTime) {
				t.Fatalf("accepted bookings %d and %d overlap: [%v,%v] vs [%v,%v]",
					a.ID, b.ID, a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			}
		}
	}
}

func TestCancelBookingReleasesSlot(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)
	slot.Status = models.SlotStatusBooked
	f.slots.add(*slot)

	start := f.now.Add(time.Hour)
	booking := f.bookings.add(models.Booking{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    models.BookingStatusConfirmed,
	})

	cancelled, err := f.svc.CancelBooking(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != models.BookingStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if got := f.slots.status(slot.ID); got != models.SlotStatusAvailable {
		t.Errorf("slot status = %s, want AVAILABLE", got)
	}
}

func TestCancelBookingRejectsNonConfirmed(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	for _, status := range []models.BookingStatus{
		models.BookingStatusOngoing,
		models.BookingStatusCompleted,
		models.BookingStatusExpired,
		models.BookingStatusCancelled,
	} {
		booking := f.bookings.add(models.Booking{
			UserID: 7,
			SlotID: slot.ID,
			Status: status,
		})
		if _, err := f.svc.CancelBooking(context.Background(), booking.ID); !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("cancel from %s: err = %v, want ErrInvalidStateTransition", status, err)
		}
	}
}

func TestExpireOverdueBookings(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)
	slot.Status = models.SlotStatusBooked
	f.slots.add(*slot)

	// Grace deadline passed 5 minutes ago.
	overdue := f.bookings.add(models.Booking{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: f.now.Add(-20 * time.Minute),
		EndTime:   f.now.Add(40 * time.Minute),
		Status:    models.BookingStatusConfirmed,
	})
	// Still inside the grace window.
	pending := f.bookings.add(models.Booking{
		UserID:    8,
		SlotID:    slot.ID,
		StartTime: f.now.Add(-10 * time.Minute),
		EndTime:   f.now.Add(50 * time.Minute),
		Status:    models.BookingStatusConfirmed,
	})
	// Overdue but already charging.
	charging := f.bookings.add(models.Booking{
		UserID:    9,
		SlotID:    slot.ID,
		StartTime: f.now.Add(-30 * time.Minute),
		EndTime:   f.now.Add(30 * time.Minute),
		Status:    models.BookingStatusConfirmed,
	})
	f.bookings.sessioned[charging.ID] = true

	expired, err := f.svc.ExpireOverdueBookings(context.Background())
	if err != nil {
		t.Fatalf("ExpireOverdueBookings: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}
	if got := f.bookings.statusOf(overdue.ID); got != models.BookingStatusExpired {
		t.Errorf("overdue booking status = %s, want EXPIRED", got)
	}
	if got := f.bookings.statusOf(pending.ID); got != models.BookingStatusConfirmed {
		t.Errorf("pending booking status = %s, want CONFIRMED", got)
	}
	if got := f.bookings.statusOf(charging.ID); got != models.BookingStatusConfirmed {
		t.Errorf("charging booking status = %s, want CONFIRMED", got)
	}
	if got := f.slots.status(slot.ID); got != models.SlotStatusAvailable {
		t.Errorf("slot status = %s, want AVAILABLE", got)
	}

	// A second pass finds nothing.
	expired, err = f.svc.ExpireOverdueBookings(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if expired != 0 {
		t.Errorf("second sweep expired = %d, want 0", expired)
	}
}

func TestExpireHonorsExplicitDeadline(t *testing.T) {
	f := newBookingFixture(t)
	_, slot := f.seedStationAndSlot(12.0)

	// Start already passed but the stored deadline is still ahead.
	deadline := f.now.Add(10 * time.Minute)
	booking := f.bookings.add(models.Booking{
		UserID:    7,
		SlotID:    slot.ID,
		StartTime: f.now.Add(-time.Hour),
		EndTime:   f.now.Add(time.Hour),
		Status:    models.BookingStatusConfirmed,
		ExpiresAt: &deadline,
	})

	expired, err := f.svc.ExpireOverdueBookings(context.Background())
	if err != nil {
		t.Fatalf("ExpireOverdueBookings: %v", err)
	}
	if expired != 0 {
		t.Fatalf("expired = %d, want 0", expired)
	}
	if got := f.bookings.statusOf(booking.ID); got != models.BookingStatusConfirmed {
		t.Errorf("booking status = %s, want CONFIRMED", got)
	}
}
