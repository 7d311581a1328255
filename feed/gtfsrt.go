package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

// Handler receives decoded, validated samples.
type Handler func(telemetry.Sample)

// GTFSRT polls a GTFS-Realtime VehiclePositions feed and converts vehicle
// entities to telemetry samples.
type GTFSRT struct {
	url        string
	interval   time.Duration
	httpClient *http.Client
}

// NewGTFSRT creates a poller for the given VehiclePositions URL.
func NewGTFSRT(url string, interval, timeout time.Duration) *GTFSRT {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &GTFSRT{
		url:        url,
		interval:   interval,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Run polls until ctx is cancelled, delivering every decoded sample to h.
// Fetch errors are logged and retried on the next interval; a broken feed
// degrades to stale vehicles rather than taking the service down.
func (f *GTFSRT) Run(ctx context.Context, h Handler) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		samples, err := f.Poll(ctx)
		if err != nil {
			log.Printf("gtfsrt feed: %v", err)
		}
		for _, s := range samples {
			h(s)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches and decodes the feed once.
func (f *GTFSRT) Poll(ctx context.Context) ([]telemetry.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, f.url)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return DecodeVehiclePositions(b)
}

// DecodeVehiclePositions parses a FeedMessage and maps its vehicle entities
// to samples. Entities without a position or vehicle ID are skipped; a
// missing timestamp falls back to the feed header timestamp. GTFS-RT speeds
// are meters per second and are converted to km/h.
func DecodeVehiclePositions(b []byte) ([]telemetry.Sample, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, fmt.Errorf("decode feed message: %w", err)
	}

	var headerTS int64
	if fm.Header != nil && fm.Header.Timestamp != nil {
		headerTS = int64(*fm.Header.Timestamp)
	}

	var samples []telemetry.Sample
	for _, e := range fm.Entity {
		vp := e.Vehicle
		if vp == nil || vp.Position == nil {
			continue
		}
		id := ""
		if vp.Vehicle != nil && vp.Vehicle.Id != nil {
			id = *vp.Vehicle.Id
		}
		if id == "" {
			continue
		}
		s := telemetry.Sample{
			VehicleID: id,
			Latitude:  float64(vp.Position.GetLatitude()),
			Longitude: float64(vp.Position.GetLongitude()),
			Heading:   float64(vp.Position.GetBearing()),
			Speed:     float64(vp.Position.GetSpeed()) * 3.6,
		}
		ts := headerTS
		if vp.Timestamp != nil {
			ts = int64(*vp.Timestamp)
		}
		if ts > 0 {
			s.Timestamp = time.Unix(ts, 0).UTC()
		}
		if err := telemetry.ValidateSample(s); err != nil {
			log.Printf("gtfsrt feed: dropping entity %s: %v", id, err)
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}
