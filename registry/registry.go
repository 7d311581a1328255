package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/fleet-tracking/priority"
	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
	"github.com/theoremus-urban-solutions/fleet-tracking/timeutil"
)

// Defaults for the registry's housekeeping.
const (
	DefaultRetention     = 5 * time.Minute
	DefaultSweepInterval = 30 * time.Second
)

// NotifyFunc receives vehicle updates for one view. Callbacks run outside the
// registry lock and must not block for long; a slow view delays fan-out to
// the views after it.
type NotifyFunc func(telemetry.TrackedVehicle)

// Options configures a Registry. Zero values fall back to the documented
// defaults.
type Options struct {
	Classifier         telemetry.Classifier
	PriorityThresholds priority.Thresholds
	Retention          time.Duration
	SweepInterval      time.Duration
	MaxPanels          int
	Clock              timeutil.Clock
}

type view struct {
	notify NotifyFunc
	wants  map[string]struct{}
}

type vehicleMeta struct {
	plate         string
	company       string
	activeOrderID string
}

// Registry is the subscription service object. All exported methods are safe
// for concurrent use.
type Registry struct {
	mu sync.Mutex

	classifier telemetry.Classifier
	thresholds priority.Thresholds
	retention  time.Duration
	sweepEvery time.Duration
	clock      timeutil.Clock

	vehicles map[string]*telemetry.TrackedVehicle
	lastSeen map[string]time.Time
	meta     map[string]vehicleMeta
	views    map[string]*view
	wanted   map[string]int // vehicle ID -> number of views wanting it

	maxPanels int
	panels    []Panel
	layout    GridLayout
}

// New creates a Registry from opts.
func New(opts Options) *Registry {
	if opts.Classifier == (telemetry.Classifier{}) {
		opts.Classifier = telemetry.NewClassifier()
	}
	if opts.PriorityThresholds == (priority.Thresholds{}) {
		opts.PriorityThresholds = priority.DefaultThresholds()
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.MaxPanels <= 0 {
		opts.MaxPanels = DefaultMaxPanels
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Registry{
		classifier: opts.Classifier,
		thresholds: opts.PriorityThresholds,
		retention:  opts.Retention,
		sweepEvery: opts.SweepInterval,
		clock:      opts.Clock,
		vehicles:   map[string]*telemetry.TrackedVehicle{},
		lastSeen:   map[string]time.Time{},
		meta:       map[string]vehicleMeta{},
		views:      map[string]*view{},
		wanted:     map[string]int{},
		maxPanels:  opts.MaxPanels,
		layout:     LayoutAuto,
	}
}

// RegisterView adds a view and returns its ID. notify may be nil for views
// that only poll via Vehicle/Vehicles.
func (r *Registry) RegisterView(notify NotifyFunc) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.views[id] = &view{notify: notify, wants: map[string]struct{}{}}
	r.mu.Unlock()
	return id
}

// DropView removes a view and all of its interest. Vehicles left wanted by
// nobody stay tracked until the retention sweep evicts them, so a quick
// reconnect-and-resubscribe loses nothing.
func (r *Registry) DropView(viewID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[viewID]
	if !ok {
		return
	}
	for id := range v.wants {
		r.releaseWantLocked(id)
	}
	delete(r.views, viewID)
}

// Subscribe marks the view's interest in the given vehicle IDs. Unknown
// vehicle IDs are not an error: interest is recorded and the vehicle appears
// once its first sample arrives. Re-subscribing an already wanted ID is a
// no-op and triggers no re-fetch.
func (r *Registry) Subscribe(viewID string, vehicleIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[viewID]
	if !ok {
		return
	}
	for _, id := range vehicleIDs {
		if _, already := v.wants[id]; already {
			continue
		}
		v.wants[id] = struct{}{}
		r.wanted[id]++
	}
}

// Unsubscribe removes the view's interest in the given vehicle IDs.
// Unsubscribing an absent want is a no-op.
func (r *Registry) Unsubscribe(viewID string, vehicleIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[viewID]
	if !ok {
		return
	}
	for _, id := range vehicleIDs {
		if _, had := v.wants[id]; !had {
			continue
		}
		delete(v.wants, id)
		r.releaseWantLocked(id)
	}
}

func (r *Registry) releaseWantLocked(vehicleID string) {
	if n := r.wanted[vehicleID]; n <= 1 {
		delete(r.wanted, vehicleID)
	} else {
		r.wanted[vehicleID] = n - 1
	}
}

// SetVehicleInfo attaches plate, company and active order metadata to a
// vehicle ID. Metadata is applied to the tracked state on the next
// classification and survives until overwritten.
func (r *Registry) SetVehicleInfo(vehicleID, plate, company, activeOrderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta[vehicleID] = vehicleMeta{plate: plate, company: company, activeOrderID: activeOrderID}
	if v, ok := r.vehicles[vehicleID]; ok {
		v.Plate = plate
		v.ActiveOrderID = activeOrderID
	}
}

// OnSample classifies and stores an incoming sample, then notifies every
// interested view. Exactly one classification happens per sample regardless
// of how many views want the vehicle; unwanted samples are stored silently so
// a later subscribe sees current state.
func (r *Registry) OnSample(s telemetry.Sample) {
	now := r.clock.Now()

	r.mu.Lock()
	prev := r.vehicles[s.VehicleID]
	updated := r.classifier.Classify(prev, s, now)
	if m, ok := r.meta[s.VehicleID]; ok {
		updated.Plate = m.plate
		updated.ActiveOrderID = m.activeOrderID
	}
	r.vehicles[s.VehicleID] = &updated
	r.lastSeen[s.VehicleID] = now
	notifies := r.interestedLocked(s.VehicleID)
	r.mu.Unlock()

	for _, fn := range notifies {
		fn(updated)
	}
}

// interestedLocked collects the notify callbacks of views wanting the vehicle.
func (r *Registry) interestedLocked(vehicleID string) []NotifyFunc {
	if r.wanted[vehicleID] == 0 {
		return nil
	}
	var fns []NotifyFunc
	for _, v := range r.views {
		if v.notify == nil {
			continue
		}
		if _, wants := v.wants[vehicleID]; wants {
			fns = append(fns, v.notify)
		}
	}
	return fns
}

// Vehicle returns the tracked state for an ID. ok is false while no sample
// has arrived yet ("not yet available"); callers branch on presence, never on
// an error.
func (r *Registry) Vehicle(vehicleID string) (telemetry.TrackedVehicle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return telemetry.TrackedVehicle{VehicleID: vehicleID}, false
	}
	return *v, true
}

// Vehicles returns a snapshot of every tracked vehicle, ordered by ID.
func (r *Registry) Vehicles() []telemetry.TrackedVehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]telemetry.TrackedVehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out
}

// Sweep performs one housekeeping pass at the given instant: connection
// statuses are degraded by sample age (interested views are notified of
// changes), and vehicles wanted by no view whose last sample is older than
// the retention window are evicted.
func (r *Registry) Sweep(now time.Time) {
	type change struct {
		vehicle  telemetry.TrackedVehicle
		notifies []NotifyFunc
	}
	var changes []change

	r.mu.Lock()
	for id, v := range r.vehicles {
		status := r.classifier.ClassifyConnection(now.Sub(v.Sample.Timestamp))
		if status != v.Connection {
			v.Connection = status
			changes = append(changes, change{vehicle: *v, notifies: r.interestedLocked(id)})
		}
	}
	for id, seen := range r.lastSeen {
		if r.wanted[id] == 0 && now.Sub(seen) > r.retention {
			delete(r.vehicles, id)
			delete(r.lastSeen, id)
		}
	}
	r.mu.Unlock()

	for _, c := range changes {
		for _, fn := range c.notifies {
			fn(c.vehicle)
		}
	}
}

// Run drives Sweep on the configured interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			r.Sweep(now)
		}
	}
}

// Retransmissions builds the operator attention list: one record per vehicle
// whose connection is degraded or lost, most urgent first (priority
// descending, then longest disconnect).
func (r *Registry) Retransmissions(now time.Time) []priority.RetransmissionRecord {
	r.mu.Lock()
	var records []priority.RetransmissionRecord
	for id, v := range r.vehicles {
		if v.Connection == telemetry.ConnectionOnline {
			continue
		}
		disconnected := now.Sub(v.Sample.Timestamp)
		if disconnected < 0 {
			disconnected = 0
		}
		rec := priority.RetransmissionRecord{
			VehicleID:           id,
			Company:             r.meta[id].company,
			LastConnection:      v.Sample.Timestamp,
			DisconnectedSeconds: int64(disconnected.Seconds()),
			Connection:          v.Connection,
			Movement:            v.Movement,
			Priority:            r.thresholds.Classify(disconnected, v.HasActiveOrder()),
		}
		records = append(records, rec)
	}
	r.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority > records[j].Priority
		}
		return records[i].DisconnectedSeconds > records[j].DisconnectedSeconds
	})
	return records
}
