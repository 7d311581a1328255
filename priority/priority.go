package priority

import (
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

// Level is an urgency classification in ascending severity.
type Level int

const (
	Low Level = iota
	Medium
	High
	Critical
)

func (l Level) String() string {
	switch l {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize as their
// names in JSON and CSV output.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Default escalation thresholds.
const (
	DefaultMediumAfter   = 15 * time.Minute
	DefaultHighAfter     = 30 * time.Minute
	DefaultCriticalAfter = time.Hour
)

// Thresholds holds the disconnect durations at which urgency escalates.
// Medium < High < Critical.
type Thresholds struct {
	Medium   time.Duration
	High     time.Duration
	Critical time.Duration
}

// DefaultThresholds returns the documented default escalation table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Medium:   DefaultMediumAfter,
		High:     DefaultHighAfter,
		Critical: DefaultCriticalAfter,
	}
}

// Classify maps a disconnect duration to an urgency level. A vehicle with an
// active order escalates one band early: its disconnect matters to a customer,
// not just to the fleet. Rules are evaluated top-down, first match wins.
func (t Thresholds) Classify(disconnected time.Duration, hasActiveOrder bool) Level {
	switch {
	case disconnected > t.Critical || (disconnected > t.High && hasActiveOrder):
		return Critical
	case disconnected > t.High || (disconnected > t.Medium && hasActiveOrder):
		return High
	case disconnected > t.Medium:
		return Medium
	default:
		return Low
	}
}

// MaxCommentLen bounds the free-text comment on a retransmission record.
const MaxCommentLen = 500

// RetransmissionRecord describes one disconnected or degraded vehicle for the
// operator attention list.
type RetransmissionRecord struct {
	VehicleID           string                     `json:"vehicle_id"`
	Company             string                     `json:"company,omitempty"`
	LastConnection      time.Time                  `json:"last_connection"`
	DisconnectedSeconds int64                      `json:"disconnected_seconds"`
	Connection          telemetry.ConnectionStatus `json:"connection_status"`
	Movement            telemetry.MovementStatus   `json:"movement_status"`
	Comment             string                     `json:"comment,omitempty"`
	Priority            Level                      `json:"priority"`
}

// SetComment stores the comment truncated to MaxCommentLen runes.
func (r *RetransmissionRecord) SetComment(comment string) {
	runes := []rune(comment)
	if len(runes) > MaxCommentLen {
		runes = runes[:MaxCommentLen]
	}
	r.Comment = string(runes)
}
