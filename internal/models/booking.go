package models

import "time"

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusOngoing   BookingStatus = "ONGOING"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// VehicleType of the vehicle the booking was made for.
type VehicleType string

const (
	VehicleTypeCar   VehicleType = "CAR"
	VehicleTypeTruck VehicleType = "TRUCK"
)

// Booking is a user's time-boxed reservation of one slot. ExpiresAt is the grace
// deadline after which an unstarted CONFIRMED booking is swept to EXPIRED.
type Booking struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	SlotID        int64         `db:"slot_id" json:"slot_id"`
	StartTime     time.Time     `db:"start_time" json:"start_time"`
	EndTime       time.Time     `db:"end_time" json:"end_time"`
	Status        BookingStatus `db:"status" json:"status"`
	PriceEstimate float64       `db:"price_estimate" json:"price_estimate"`
	VehicleType   VehicleType   `db:"vehicle_type" json:"vehicle_type"`
	ExpiresAt     *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
	ActualStart   *time.Time    `db:"actual_start" json:"actual_start,omitempty"`
	ActualEnd     *time.Time    `db:"actual_end" json:"actual_end,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
