package fleettracking

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/theoremus-urban-solutions/fleet-tracking/export"
	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type healthResponse struct {
	Status          string `json:"status"`
	TrackedVehicles int    `json:"tracked_vehicles"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		TrackedVehicles: len(s.registry.Vehicles()),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var sample telemetry.Sample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeError(w, http.StatusBadRequest, "malformed telemetry payload")
		return
	}
	if err := telemetry.ValidateSample(sample); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.registry.OnSample(sample)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Vehicles())
}

func (s *Server) handleVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, ok := s.registry.Vehicle(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown vehicle")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleETA(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, ok := s.registry.Vehicle(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown vehicle")
		return
	}
	if !v.HasActiveOrder() || s.milestones == nil {
		writeError(w, http.StatusNotFound, "no active order for vehicle")
		return
	}
	milestones, err := s.milestones.Milestones(r.Context(), v.ActiveOrderID)
	if err != nil {
		log.Printf("milestone lookup for order %s: %v", v.ActiveOrderID, err)
		writeError(w, http.StatusBadGateway, "milestone lookup failed")
		return
	}
	result, ok := s.etaEngine.Compute(v.Sample.Latitude, v.Sample.Longitude, v.Sample.Speed, milestones, time.Now())
	if !ok {
		writeError(w, http.StatusNotFound, "no pending milestone")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history source not configured")
		return
	}
	id := mux.Vars(r)["id"]
	from, to, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	points, err := s.history.Route(r.Context(), id, from, to)
	if err != nil {
		log.Printf("route lookup for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "route lookup failed")
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		if err := export.WriteRouteCSV(w, points); err != nil {
			log.Printf("route csv for %s: %v", id, err)
		}
	case "gpx":
		w.Header().Set("Content-Type", "application/gpx+xml")
		if err := export.WriteRouteGPX(w, id, points); err != nil {
			log.Printf("route gpx for %s: %v", id, err)
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := export.WriteRouteJSON(w, points); err != nil {
			log.Printf("route json for %s: %v", id, err)
		}
	}
}

func (s *Server) handleRetransmissions(w http.ResponseWriter, r *http.Request) {
	records := s.registry.Retransmissions(time.Now())
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := export.WriteRetransmissionsCSV(w, records); err != nil {
			log.Printf("retransmissions csv: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// parseTimeRange reads optional RFC3339 from/to query parameters. An absent
// range means "everything up to now".
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from := time.Time{}
	to := time.Now()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		to = t
	}
	return from, to, nil
}
