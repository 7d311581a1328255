package history

import (
	"context"
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/geo"
	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

// RoutePoint is one point of a recorded route. Index is 0-based and
// contiguous within a route; CumulativeKM is the distance travelled from the
// first point.
type RoutePoint struct {
	Index           int       `json:"index"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Speed           float64   `json:"speed"`
	Heading         float64   `json:"heading"`
	Timestamp       time.Time `json:"timestamp"`
	CumulativeKM    float64   `json:"cumulative_km"`
	IsStopped       bool      `json:"is_stopped"`
	StopDurationSec int       `json:"stop_duration_sec,omitempty"`
	Event           string    `json:"event,omitempty"`
}

// Source supplies the recorded route of a vehicle over a time range. The core
// does not fetch or paginate beyond this call.
type Source interface {
	Route(ctx context.Context, vehicleID string, from, to time.Time) ([]RoutePoint, error)
}

// BuildRoute derives a playable route from raw samples: points are sorted by
// timestamp, indexed contiguously from 0, annotated with cumulative haversine
// distance, and stopped points carry the duration of the halt they belong to.
func BuildRoute(samples []telemetry.Sample) []RoutePoint {
	if len(samples) == 0 {
		return nil
	}
	sorted := make([]telemetry.Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	points := make([]RoutePoint, len(sorted))
	cumKM := 0.0
	for i, s := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			cumKM += geo.HaversineKM(prev.Latitude, prev.Longitude, s.Latitude, s.Longitude)
		}
		points[i] = RoutePoint{
			Index:        i,
			Latitude:     s.Latitude,
			Longitude:    s.Longitude,
			Speed:        s.Speed,
			Heading:      s.Heading,
			Timestamp:    s.Timestamp,
			CumulativeKM: cumKM,
			IsStopped:    s.Speed == 0,
		}
	}
	annotateStops(points)
	return points
}

// annotateStops stamps every point of a consecutive stopped run with the
// run's total duration, measured from the first stopped point to the first
// point after the run (or the run's own span when the route ends stopped).
func annotateStops(points []RoutePoint) {
	i := 0
	for i < len(points) {
		if !points[i].IsStopped {
			i++
			continue
		}
		j := i
		for j < len(points) && points[j].IsStopped {
			j++
		}
		end := points[j-1].Timestamp
		if j < len(points) {
			end = points[j].Timestamp
		}
		dur := int(end.Sub(points[i].Timestamp).Seconds())
		for k := i; k < j; k++ {
			points[k].StopDurationSec = dur
		}
		i = j
	}
}
