package eta

import (
	"math"
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/geo"
)

// Engine defaults.
const (
	DefaultFallbackSpeedKMH = 40.0
	DefaultDelayTolerance   = 5 * time.Minute
)

// Engine computes ETA results. FallbackSpeedKMH is used when the vehicle is
// stopped so a stationary vehicle still gets a finite estimate;
// DelayTolerance is the slack before a late arrival is flagged as delayed.
type Engine struct {
	FallbackSpeedKMH float64
	DelayTolerance   time.Duration
}

// NewEngine returns an Engine with the documented defaults.
func NewEngine() Engine {
	return Engine{
		FallbackSpeedKMH: DefaultFallbackSpeedKMH,
		DelayTolerance:   DefaultDelayTolerance,
	}
}

// Result is the outcome of an ETA computation against the next pending
// milestone. DelayMinutes is meaningful only when Delayed is true.
type Result struct {
	Milestone    Milestone `json:"milestone"`
	DistanceKM   float64   `json:"distance_km"`
	EtaMinutes   int       `json:"eta_minutes"`
	Delayed      bool      `json:"delayed"`
	DelayMinutes int       `json:"delay_minutes,omitempty"`
}

// Compute returns the ETA to the first pending or in-progress milestone from
// the given position. ok is false when no milestone remains.
//
// Delay is reported only when the milestone's estimated arrival is still in
// the future and the calculated arrival overshoots it by more than the
// tolerance. An estimate that already lies in the past never produces a delay
// flag: the milestone is known-overdue and re-reporting it would be noise.
func (e Engine) Compute(lat, lon, speedKMH float64, milestones []Milestone, now time.Time) (Result, bool) {
	next, ok := NextPending(milestones)
	if !ok {
		return Result{}, false
	}

	distanceKM := geo.HaversineKM(lat, lon, next.Latitude, next.Longitude)

	effectiveSpeed := speedKMH
	if effectiveSpeed <= 0 {
		effectiveSpeed = e.FallbackSpeedKMH
	}
	etaMinutes := int(math.Round(distanceKM / effectiveSpeed * 60))

	r := Result{
		Milestone:  next,
		DistanceKM: distanceKM,
		EtaMinutes: etaMinutes,
	}

	if next.EstimatedArrival != nil && next.EstimatedArrival.After(now) {
		calculatedArrival := now.Add(time.Duration(etaMinutes) * time.Minute)
		if overshoot := calculatedArrival.Sub(*next.EstimatedArrival); overshoot > e.DelayTolerance {
			r.Delayed = true
			r.DelayMinutes = int(math.Round(overshoot.Minutes()))
		}
	}
	return r, true
}
