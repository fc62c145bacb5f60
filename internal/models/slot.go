package models

import "time"

// SlotStatus is the real-time state of a charger slot.
type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "AVAILABLE"
	SlotStatusReserved    SlotStatus = "RESERVED"
	SlotStatusBooked      SlotStatus = "BOOKED"
	SlotStatusCharging    SlotStatus = "CHARGING"
	SlotStatusMaintenance SlotStatus = "MAINTENANCE"
	SlotStatusOccupied    SlotStatus = "OCCUPIED"
)

// SlotType distinguishes AC and DC charging hardware.
type SlotType string

const (
	SlotTypeAC SlotType = "AC"
	SlotTypeDC SlotType = "DC"
)

// ConnectorType is the physical plug standard of a slot.
type ConnectorType string

const (
	ConnectorCCS2    ConnectorType = "CCS2"
	ConnectorCHAdeMO ConnectorType = "CHADEMO"
	ConnectorType2   ConnectorType = "TYPE_2"
	ConnectorGBT     ConnectorType = "GB_T"
	ConnectorTesla   ConnectorType = "TESLA"
	ConnectorMCS     ConnectorType = "MCS"
)

// ChargerSlot is a single physical charging point. Version is the optimistic-lock
// token: every status write must present the version it read and bumps it by one.
type ChargerSlot struct {
	ID            int64         `db:"id" json:"id"`
	StationID     int64         `db:"station_id" json:"station_id"`
	DispensaryID  *int64        `db:"dispensary_id" json:"dispensary_id,omitempty"`
	Label         string        `db:"label" json:"slot_label"`
	SlotType      SlotType      `db:"slot_type" json:"slot_type"`
	ConnectorType ConnectorType `db:"connector_type" json:"connector_type"`
	PowerKw       float64       `db:"power_kw" json:"power_kw"`
	Status        SlotStatus    `db:"status" json:"status"`
	Version       int64         `db:"version" json:"version"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
