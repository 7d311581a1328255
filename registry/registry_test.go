package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/fleet-tracking/priority"
	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
	"github.com/theoremus-urban-solutions/fleet-tracking/timeutil"
)

var regNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func regSample(id string, ts time.Time, speed float64) telemetry.Sample {
	return telemetry.Sample{
		VehicleID: id,
		Latitude:  59.91,
		Longitude: 10.75,
		Speed:     speed,
		Heading:   90,
		Timestamp: ts,
	}
}

func newTestRegistry(clock timeutil.Clock) *Registry {
	return New(Options{
		Classifier: telemetry.Classifier{TemporaryLoss: 2 * time.Minute, Disconnected: 5 * time.Minute},
		Retention:  5 * time.Minute,
		MaxPanels:  2,
		Clock:      clock,
	})
}

func TestOnSampleFansOutToInterestedViews(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	var got1, got2, got3 []telemetry.TrackedVehicle
	v1 := r.RegisterView(func(v telemetry.TrackedVehicle) { got1 = append(got1, v) })
	v2 := r.RegisterView(func(v telemetry.TrackedVehicle) { got2 = append(got2, v) })
	v3 := r.RegisterView(func(v telemetry.TrackedVehicle) { got3 = append(got3, v) })

	r.Subscribe(v1, "VEH-001")
	r.Subscribe(v2, "VEH-001", "VEH-002")
	r.Subscribe(v3, "VEH-003")

	r.OnSample(regSample("VEH-001", regNow, 50))

	require.Len(t, got1, 1)
	require.Len(t, got2, 1)
	require.Empty(t, got3, "uninterested view not notified")
	require.Equal(t, telemetry.ConnectionOnline, got1[0].Connection)
	require.Equal(t, telemetry.MovementMoving, got1[0].Movement)
}

func TestUnwantedSampleStoredNotPushed(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	var got []telemetry.TrackedVehicle
	viewID := r.RegisterView(func(v telemetry.TrackedVehicle) { got = append(got, v) })
	r.Subscribe(viewID, "VEH-999")

	r.OnSample(regSample("VEH-001", regNow, 30))
	require.Empty(t, got, "unwanted vehicle must not be pushed")

	v, ok := r.Vehicle("VEH-001")
	require.True(t, ok, "unwanted sample still classified and stored")
	require.Equal(t, telemetry.ConnectionOnline, v.Connection)

	// A later subscribe sees the stored state without a new sample.
	r.Subscribe(viewID, "VEH-001")
	v, ok = r.Vehicle("VEH-001")
	require.True(t, ok)
	require.Equal(t, "VEH-001", v.VehicleID)
}

func TestSubscribeUnknownVehicleIsNotAnError(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	var got []telemetry.TrackedVehicle
	viewID := r.RegisterView(func(v telemetry.TrackedVehicle) { got = append(got, v) })
	r.Subscribe(viewID, "VEH-404")

	_, ok := r.Vehicle("VEH-404")
	require.False(t, ok, "not yet available until a sample arrives")

	// A sample arriving after the subscribe completes is always delivered.
	r.OnSample(regSample("VEH-404", regNow, 0))
	require.Len(t, got, 1)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	var got []telemetry.TrackedVehicle
	viewID := r.RegisterView(func(v telemetry.TrackedVehicle) { got = append(got, v) })
	r.Subscribe(viewID, "VEH-001")
	r.OnSample(regSample("VEH-001", regNow, 10))

	r.Unsubscribe(viewID, "VEH-001")
	r.Unsubscribe(viewID, "VEH-001") // idempotent
	r.OnSample(regSample("VEH-001", regNow.Add(time.Second), 10))

	require.Len(t, got, 1, "no delivery after unsubscribe")
}

func TestDropViewReleasesWants(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	var got []telemetry.TrackedVehicle
	viewID := r.RegisterView(func(v telemetry.TrackedVehicle) { got = append(got, v) })
	r.Subscribe(viewID, "VEH-001")
	r.DropView(viewID)

	r.OnSample(regSample("VEH-001", regNow, 10))
	require.Empty(t, got)
}

func TestRetentionEviction(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	viewID := r.RegisterView(nil)
	r.Subscribe(viewID, "VEH-001")
	r.OnSample(regSample("VEH-001", regNow, 10))
	r.OnSample(regSample("VEH-002", regNow, 10))

	// Within retention nothing is evicted even when unwanted.
	clock.Advance(4 * time.Minute)
	r.Sweep(clock.Now())
	_, ok := r.Vehicle("VEH-002")
	require.True(t, ok, "inside the retention window")

	// Past retention the unwanted vehicle goes, the wanted one stays.
	clock.Advance(2 * time.Minute)
	r.Sweep(clock.Now())
	_, ok = r.Vehicle("VEH-002")
	require.False(t, ok, "unwanted and stale: evicted")
	_, ok = r.Vehicle("VEH-001")
	require.True(t, ok, "still wanted by a view: kept")
}

func TestSweepDegradesConnectionAndNotifies(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	var got []telemetry.TrackedVehicle
	viewID := r.RegisterView(func(v telemetry.TrackedVehicle) { got = append(got, v) })
	r.Subscribe(viewID, "VEH-001")
	r.OnSample(regSample("VEH-001", regNow, 10))
	require.Len(t, got, 1)
	require.Equal(t, telemetry.ConnectionOnline, got[0].Connection)

	clock.Advance(3 * time.Minute)
	r.Sweep(clock.Now())
	require.Len(t, got, 2)
	require.Equal(t, telemetry.ConnectionTemporaryLoss, got[1].Connection)

	clock.Advance(3 * time.Minute)
	r.Sweep(clock.Now())
	require.Len(t, got, 3)
	require.Equal(t, telemetry.ConnectionDisconnected, got[2].Connection)

	// Unchanged status produces no extra notification.
	clock.Advance(time.Minute)
	r.Sweep(clock.Now())
	require.Len(t, got, 3)
}

func TestRetransmissionsOrderedByUrgency(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)
	viewID := r.RegisterView(nil)
	r.Subscribe(viewID, "VEH-001", "VEH-002", "VEH-003")

	r.SetVehicleInfo("VEH-002", "AB 12345", "Acme Logistics", "ORD-7")

	r.OnSample(regSample("VEH-001", regNow.Add(-20*time.Minute), 0))  // medium
	r.OnSample(regSample("VEH-002", regNow.Add(-40*time.Minute), 0))  // high + order -> critical
	r.OnSample(regSample("VEH-003", regNow.Add(-90*time.Second), 10)) // online, excluded
	r.OnSample(regSample("VEH-004", regNow, 10))                      // online, excluded

	records := r.Retransmissions(regNow)
	require.Len(t, records, 2)
	require.Equal(t, "VEH-002", records[0].VehicleID)
	require.Equal(t, priority.Critical, records[0].Priority)
	require.Equal(t, "Acme Logistics", records[0].Company)
	require.Equal(t, "VEH-001", records[1].VehicleID)
	require.Equal(t, priority.Medium, records[1].Priority)
	require.Equal(t, int64(1200), records[1].DisconnectedSeconds)
}

func TestSetVehicleInfoAppliesToTrackedState(t *testing.T) {
	clock := timeutil.NewMockClock(regNow)
	r := newTestRegistry(clock)

	r.OnSample(regSample("VEH-001", regNow, 10))
	r.SetVehicleInfo("VEH-001", "XY 99999", "Acme", "ORD-1")

	v, ok := r.Vehicle("VEH-001")
	require.True(t, ok)
	require.Equal(t, "XY 99999", v.Plate)
	require.Equal(t, "ORD-1", v.ActiveOrderID)

	// Metadata survives the next classification.
	r.OnSample(regSample("VEH-001", regNow.Add(time.Second), 10))
	v, _ = r.Vehicle("VEH-001")
	require.Equal(t, "XY 99999", v.Plate)
}
