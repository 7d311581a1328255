package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

// FileSource reads a recorded route from a CSV or JSON file. Format is chosen
// by file extension; everything else is rejected.
type FileSource struct {
	Path string
}

// Route loads the file, filters by vehicle ID and time range, and derives the
// route. A zero from/to means no bound on that side; an empty vehicleID
// matches every sample in the file.
func (f FileSource) Route(_ context.Context, vehicleID string, from, to time.Time) ([]RoutePoint, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open route file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var samples []telemetry.Sample
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".csv":
		samples, err = ParseCSV(file)
	case ".json":
		samples, err = ParseJSON(file)
	default:
		return nil, fmt.Errorf("unsupported route file format: %s", f.Path)
	}
	if err != nil {
		return nil, err
	}

	filtered := samples[:0]
	for _, s := range samples {
		if vehicleID != "" && s.VehicleID != vehicleID {
			continue
		}
		if !from.IsZero() && s.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && s.Timestamp.After(to) {
			continue
		}
		filtered = append(filtered, s)
	}
	return BuildRoute(filtered), nil
}

// ParseCSV reads header-mapped telemetry rows. Recognized columns are
// vehicle_id, timestamp, latitude, longitude, speed and heading; extra
// columns are ignored and malformed rows are skipped.
func ParseCSV(r io.Reader) ([]telemetry.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	indices := make(map[string]int, len(header))
	for i, h := range header {
		indices[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var samples []telemetry.Sample
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		get := func(key string) string {
			if idx, ok := indices[key]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}
		ts, err := parseTimestamp(get("timestamp"))
		if err != nil {
			continue
		}
		s := telemetry.Sample{VehicleID: get("vehicle_id"), Timestamp: ts}
		s.Latitude, _ = strconv.ParseFloat(get("latitude"), 64)
		s.Longitude, _ = strconv.ParseFloat(get("longitude"), 64)
		s.Speed, _ = strconv.ParseFloat(get("speed"), 64)
		s.Heading, _ = strconv.ParseFloat(get("heading"), 64)
		samples = append(samples, s)
	}
	return samples, nil
}

// ParseJSON reads a JSON array of telemetry samples.
func ParseJSON(r io.Reader) ([]telemetry.Sample, error) {
	var samples []telemetry.Sample
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("decode json samples: %w", err)
	}
	return samples, nil
}

func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}
