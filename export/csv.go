package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/history"
	"github.com/theoremus-urban-solutions/fleet-tracking/priority"
)

var routeHeader = []string{
	"index", "timestamp", "latitude", "longitude", "speed_kmh",
	"heading", "cumulative_km", "is_stopped", "stop_duration_sec", "event",
}

// WriteRouteCSV writes the route as header-mapped CSV rows.
func WriteRouteCSV(w io.Writer, points []history.RoutePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(routeHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range points {
		row := []string{
			strconv.Itoa(p.Index),
			p.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(p.Latitude, 'f', 6, 64),
			strconv.FormatFloat(p.Longitude, 'f', 6, 64),
			strconv.FormatFloat(p.Speed, 'f', 1, 64),
			strconv.FormatFloat(p.Heading, 'f', 0, 64),
			strconv.FormatFloat(p.CumulativeKM, 'f', 3, 64),
			strconv.FormatBool(p.IsStopped),
			strconv.Itoa(p.StopDurationSec),
			p.Event,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", p.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRouteJSON writes the route as an indented JSON array.
func WriteRouteJSON(w io.Writer, points []history.RoutePoint) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

var retransmissionHeader = []string{
	"vehicle_id", "company", "last_connection", "disconnected_seconds",
	"connection_status", "movement_status", "priority", "comment",
}

// WriteRetransmissionsCSV writes the retransmission list as CSV rows in the
// order given (callers pass the registry's urgency-sorted slice).
func WriteRetransmissionsCSV(w io.Writer, records []priority.RetransmissionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(retransmissionHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.VehicleID,
			r.Company,
			r.LastConnection.UTC().Format(time.RFC3339),
			strconv.FormatInt(r.DisconnectedSeconds, 10),
			string(r.Connection),
			string(r.Movement),
			r.Priority.String(),
			r.Comment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.VehicleID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
