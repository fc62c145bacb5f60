package models

import "time"

// ChargingSession is the metered charging activity tied to a started booking.
// At most one session ever exists per booking.
type ChargingSession struct {
	ID        int64      `db:"id" json:"id"`
	BookingID int64      `db:"booking_id" json:"booking_id"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
	EnergyKwh float64    `db:"energy_kwh" json:"energy_kwh"`
	TotalCost float64    `db:"total_cost" json:"total_cost"`
}
