package repository

import "errors"

// Typed lookup and concurrency failures shared by all repositories.
var (
	ErrStationNotFound    = errors.New("station not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDispensaryNotFound = errors.New("dispensary not found")

	// ErrVersionConflict reports an optimistic-lock loss: the slot row changed
	// between read and write. Callers re-read and retry or surface the conflict.
	ErrVersionConflict = errors.New("slot modified concurrently")
)
