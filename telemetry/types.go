package telemetry

import "time"

// ConnectionStatus classifies the freshness of a vehicle's telemetry.
// It is always derived from the latest sample, never set directly.
type ConnectionStatus string

const (
	ConnectionOnline        ConnectionStatus = "online"
	ConnectionTemporaryLoss ConnectionStatus = "temporary_loss"
	ConnectionDisconnected  ConnectionStatus = "disconnected"
)

// MovementStatus classifies a vehicle's motion from its current speed.
type MovementStatus string

const (
	MovementMoving  MovementStatus = "moving"
	MovementStopped MovementStatus = "stopped"
)

// Sample is one positional reading for a vehicle at a point in time.
// Speed is in km/h, heading in degrees, timestamp a UTC instant.
type Sample struct {
	VehicleID string    `json:"vehicle_id" validate:"required"`
	Latitude  float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Speed     float64   `json:"speed" validate:"gte=0"`
	Heading   float64   `json:"heading" validate:"gte=0,lt=360"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// TrackedVehicle is the classified live state of one vehicle: its latest
// sample plus the statuses derived from it. StoppedSince is set when the
// vehicle transitions into stopped and cleared when it leaves it.
type TrackedVehicle struct {
	VehicleID     string           `json:"vehicle_id"`
	Plate         string           `json:"plate,omitempty"`
	Sample        Sample           `json:"sample"`
	Connection    ConnectionStatus `json:"connection_status"`
	Movement      MovementStatus   `json:"movement_status"`
	StoppedSince  *time.Time       `json:"stopped_since,omitempty"`
	ActiveOrderID string           `json:"active_order_id,omitempty"`
}

// HasActiveOrder reports whether the vehicle is currently bound to an order.
func (v TrackedVehicle) HasActiveOrder() bool { return v.ActiveOrderID != "" }
