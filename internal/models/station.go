package models

import "time"

// Station is a charging location with one or more charger slots.
type Station struct {
	ID             int64      `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Address        string     `db:"address" json:"address"`
	Latitude       float64    `db:"latitude" json:"latitude"`
	Longitude      float64    `db:"longitude" json:"longitude"`
	OwnerID        int64      `db:"owner_id" json:"owner_id"`
	Meta           string     `db:"meta" json:"meta,omitempty"`
	Rating         float64    `db:"rating" json:"rating"`
	PricePerKwh    float64    `db:"price_per_kwh" json:"price_per_kwh"`
	TruckPriceKwh  *float64   `db:"truck_price_per_kwh" json:"truck_price_per_kwh,omitempty"`
	OperatingHours string     `db:"operating_hours" json:"operating_hours,omitempty"`
	LastUsedTime   *time.Time `db:"last_used_time" json:"last_used_time,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StationPin carries only what a map client needs to place a marker.
type StationPin struct {
	ID        int64   `db:"id" json:"id"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
}

// Dispensary is a power cabinet feeding a group of slots at a station.
type Dispensary struct {
	ID            int64   `db:"id" json:"id"`
	StationID     int64   `db:"station_id" json:"-"`
	Name          string  `db:"name" json:"name"`
	TotalPowerKw  float64 `db:"total_power_kw" json:"total_power_kw"`
	AcceptsTrucks bool    `db:"accepts_trucks" json:"accepts_trucks"`
}
