package service

import "errors"

// Booking and charging precondition failures. All of these are recoverable at the
// caller and map to structured API responses, never a crash.
var (
	ErrPastStartTime          = errors.New("start time cannot be in the past")
	ErrInvalidInterval        = errors.New("end time must be after start time")
	ErrSlotUnavailable        = errors.New("slot not available for booking")
	ErrSlotConflict           = errors.New("slot is already booked for the selected time range")
	ErrVehicleNotSupported    = errors.New("vehicle type not supported at this slot")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrBookingNotConfirmed    = errors.New("booking is not confirmed")
	ErrSessionExists          = errors.New("charging session already exists for this booking")
	ErrSessionAlreadyEnded    = errors.New("charging session already ended")
	ErrInvalidCoordinates     = errors.New("invalid coordinates")
)
