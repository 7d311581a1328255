package telemetry

import "time"

// Default classification windows. The registry normally overrides these from
// configuration.
const (
	DefaultTemporaryLossWindow = 2 * time.Minute
	DefaultDisconnectedWindow  = 5 * time.Minute
)

// Classifier turns raw samples into classified vehicle state using two age
// windows: samples younger than TemporaryLoss are online, samples older than
// or equal to Disconnected are disconnected, anything in between is a
// temporary loss. TemporaryLoss must be shorter than Disconnected.
type Classifier struct {
	TemporaryLoss time.Duration
	Disconnected  time.Duration
}

// NewClassifier returns a Classifier with the default windows.
func NewClassifier() Classifier {
	return Classifier{
		TemporaryLoss: DefaultTemporaryLossWindow,
		Disconnected:  DefaultDisconnectedWindow,
	}
}

// ClassifyConnection maps a sample age to a connection status. A negative age
// (sample timestamped in the future) is clamped to zero.
func (c Classifier) ClassifyConnection(age time.Duration) ConnectionStatus {
	if age < 0 {
		age = 0
	}
	switch {
	case age < c.TemporaryLoss:
		return ConnectionOnline
	case age < c.Disconnected:
		return ConnectionTemporaryLoss
	default:
		return ConnectionDisconnected
	}
}

// ClassifyMovement maps a speed to a movement status.
func ClassifyMovement(speed float64) MovementStatus {
	if speed > 0 {
		return MovementMoving
	}
	return MovementStopped
}

// Classify produces the updated vehicle state for a new sample. prev is the
// previously tracked state, or nil for a first-ever sample. The returned
// value carries over plate and order metadata from prev and applies the
// moving/stopped transition bookkeeping:
//
//   - moving -> stopped sets StoppedSince to now
//   - stopped -> moving clears StoppedSince
//   - an unchanged status leaves StoppedSince untouched
//
// No side effects; the caller owns storage and notification.
func (c Classifier) Classify(prev *TrackedVehicle, s Sample, now time.Time) TrackedVehicle {
	v := TrackedVehicle{
		VehicleID:  s.VehicleID,
		Sample:     s,
		Connection: c.ClassifyConnection(now.Sub(s.Timestamp)),
		Movement:   ClassifyMovement(s.Speed),
	}
	if prev == nil {
		return v
	}
	v.Plate = prev.Plate
	v.ActiveOrderID = prev.ActiveOrderID
	switch {
	case prev.Movement == MovementMoving && v.Movement == MovementStopped:
		t := now
		v.StoppedSince = &t
	case prev.Movement == MovementStopped && v.Movement == MovementMoving:
		v.StoppedSince = nil
	default:
		v.StoppedSince = prev.StoppedSince
	}
	return v
}
