package eta

import (
	"sort"
	"time"
)

// TrackingStatus is the lifecycle state of a milestone within an order.
type TrackingStatus string

const (
	StatusPending    TrackingStatus = "pending"
	StatusInProgress TrackingStatus = "in_progress"
	StatusCompleted  TrackingStatus = "completed"
)

// Milestone is a planned stop belonging to an order. Sequence numbers are
// unique and ascending per order; at most one milestone is in_progress at a
// time.
type Milestone struct {
	Sequence         int            `json:"sequence"`
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	EstimatedArrival *time.Time     `json:"estimated_arrival,omitempty"`
	ActualArrival    *time.Time     `json:"actual_arrival,omitempty"`
	Status           TrackingStatus `json:"status"`
}

// NextPending returns the first milestone in ascending sequence order whose
// status is pending or in_progress. ok is false when the order is complete or
// has no milestones. This is the single shared "current milestone" query; any
// view of the current stop goes through it.
func NextPending(milestones []Milestone) (Milestone, bool) {
	sorted := make([]Milestone, len(milestones))
	copy(sorted, milestones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })
	for _, m := range sorted {
		if m.Status == StatusPending || m.Status == StatusInProgress {
			return m, true
		}
	}
	return Milestone{}, false
}
