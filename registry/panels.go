package registry

import "github.com/theoremus-urban-solutions/fleet-tracking/telemetry"

// DefaultMaxPanels caps the grid view's concurrent panels.
const DefaultMaxPanels = 20

// GridLayout selects the panel grid arrangement.
type GridLayout string

const (
	Layout2x2  GridLayout = "2x2"
	Layout3x3  GridLayout = "3x3"
	Layout4x4  GridLayout = "4x4"
	Layout5x4  GridLayout = "5x4"
	LayoutAuto GridLayout = "auto"
)

// ValidLayout reports whether l is one of the supported grid layouts.
func ValidLayout(l GridLayout) bool {
	switch l {
	case Layout2x2, Layout3x3, Layout4x4, Layout5x4, LayoutAuto:
		return true
	}
	return false
}

// Panel is one slot of the multi-vehicle grid, bound to exactly one vehicle.
type Panel struct {
	PanelID   string `json:"panel_id"`
	VehicleID string `json:"vehicle_id"`
	Plate     string `json:"plate,omitempty"`
}

// panelViewID is the registry-internal view carrying the grid's interest, so
// panel vehicles participate in ordinary want refcounting.
const panelViewID = "panel-board"

// SetPanelNotify registers the callback receiving updates for panel-bound
// vehicles.
func (r *Registry) SetPanelNotify(notify NotifyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panelViewLocked().notify = notify
}

func (r *Registry) panelViewLocked() *view {
	v, ok := r.views[panelViewID]
	if !ok {
		v = &view{wants: map[string]struct{}{}}
		r.views[panelViewID] = v
	}
	return v
}

// AddPanels appends panels to the grid up to the configured maximum. The
// valid prefix of the request is added and the excess is returned as
// rejected; panels for vehicles already on the grid are skipped without
// consuming capacity. Added panel vehicles are subscribed for the grid view.
func (r *Registry) AddPanels(panels []Panel) (added, rejected []Panel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	onGrid := make(map[string]struct{}, len(r.panels))
	for _, p := range r.panels {
		onGrid[p.VehicleID] = struct{}{}
	}

	capacity := r.maxPanels - len(r.panels)
	pv := r.panelViewLocked()
	for _, p := range panels {
		if _, dup := onGrid[p.VehicleID]; dup {
			continue
		}
		if capacity <= 0 {
			rejected = append(rejected, p)
			continue
		}
		capacity--
		onGrid[p.VehicleID] = struct{}{}
		r.panels = append(r.panels, p)
		added = append(added, p)
		if _, already := pv.wants[p.VehicleID]; !already {
			pv.wants[p.VehicleID] = struct{}{}
			r.wanted[p.VehicleID]++
		}
	}
	return added, rejected
}

// RemovePanelByVehicle removes the panel bound to the vehicle, if any, and
// drops the grid view's interest in it. Other views' interest in the same
// vehicle is unaffected. Removing an unknown vehicle is a no-op.
func (r *Registry) RemovePanelByVehicle(vehicleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.panels {
		if p.VehicleID == vehicleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	r.panels = append(r.panels[:idx], r.panels[idx+1:]...)

	pv := r.panelViewLocked()
	if _, had := pv.wants[vehicleID]; had {
		delete(pv.wants, vehicleID)
		r.releaseWantLocked(vehicleID)
	}
}

// ClearAllPanels empties the grid and releases all of its interest.
func (r *Registry) ClearAllPanels() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panels = nil
	pv := r.panelViewLocked()
	for id := range pv.wants {
		delete(pv.wants, id)
		r.releaseWantLocked(id)
	}
}

// Panels returns the grid's panels in display order.
func (r *Registry) Panels() []Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Panel, len(r.panels))
	copy(out, r.panels)
	return out
}

// SetLayout selects the grid layout; unsupported values are ignored.
func (r *Registry) SetLayout(l GridLayout) {
	if !ValidLayout(l) {
		return
	}
	r.mu.Lock()
	r.layout = l
	r.mu.Unlock()
}

// Layout returns the current grid layout.
func (r *Registry) Layout() GridLayout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layout
}

// PanelVehicles resolves the grid's panels to tracked state, preserving panel
// order. ok is false per entry while the vehicle has no telemetry yet.
type PanelVehicle struct {
	Panel   Panel                    `json:"panel"`
	Vehicle telemetry.TrackedVehicle `json:"vehicle"`
	Known   bool                     `json:"known"`
}

// GridSnapshot returns the current panels joined with their vehicle state.
func (r *Registry) GridSnapshot() []PanelVehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PanelVehicle, 0, len(r.panels))
	for _, p := range r.panels {
		pv := PanelVehicle{Panel: p}
		if v, ok := r.vehicles[p.VehicleID]; ok {
			pv.Vehicle = *v
			pv.Known = true
		} else {
			pv.Vehicle = telemetry.TrackedVehicle{VehicleID: p.VehicleID, Plate: p.Plate}
		}
		out = append(out, pv)
	}
	return out
}
