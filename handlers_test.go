package fleettracking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/fleet-tracking/eta"
	"github.com/theoremus-urban-solutions/fleet-tracking/history"
	"github.com/theoremus-urban-solutions/fleet-tracking/registry"
	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

type staticMilestones struct {
	milestones []eta.Milestone
}

func (s staticMilestones) Milestones(_ context.Context, _ string) ([]eta.Milestone, error) {
	return s.milestones, nil
}

type staticRoutes struct {
	points []history.RoutePoint
}

func (s staticRoutes) Route(_ context.Context, _ string, _, _ time.Time) ([]history.RoutePoint, error) {
	return s.points, nil
}

func newTestServer(t *testing.T, hist history.Source, ms MilestoneSource) *Server {
	t.Helper()
	return NewServer(registry.New(registry.Options{}), hist, ms)
}

func postSample(t *testing.T, s *Server, sample telemetry.Sample) {
	t.Helper()
	body, err := json.Marshal(sample)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/telemetry", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, 0, resp.TrackedVehicles)
}

func TestIngestAndFetchVehicle(t *testing.T) {
	s := newTestServer(t, nil, nil)
	postSample(t, s, telemetry.Sample{
		VehicleID: "VEH-001",
		Latitude:  -23.55,
		Longitude: -46.63,
		Speed:     42,
		Heading:   90,
		Timestamp: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/VEH-001", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var v telemetry.TrackedVehicle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	require.Equal(t, "VEH-001", v.VehicleID)
	require.Equal(t, telemetry.ConnectionOnline, v.Connection)
	require.Equal(t, telemetry.MovementMoving, v.Movement)
}

func TestIngestRejectsBadPayloads(t *testing.T) {
	s := newTestServer(t, nil, nil)

	cases := []struct {
		name string
		body string
	}{
		{"garbage", "{not json"},
		{"latitude out of range", `{"vehicle_id":"V1","latitude":95,"longitude":0,"timestamp":"2026-08-30T10:00:00Z"}`},
		{"missing vehicle id", `{"latitude":1,"longitude":1,"timestamp":"2026-08-30T10:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/telemetry", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestVehicleNotFound(t *testing.T) {
	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/NOPE", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestETAForActiveOrder(t *testing.T) {
	ms := staticMilestones{milestones: []eta.Milestone{
		{Sequence: 1, Latitude: -23.55, Longitude: -46.60, Status: eta.StatusPending},
	}}
	s := newTestServer(t, nil, ms)
	postSample(t, s, telemetry.Sample{
		VehicleID: "VEH-001",
		Latitude:  -23.55,
		Longitude: -46.63,
		Speed:     60,
		Heading:   90,
		Timestamp: time.Now().UTC(),
	})
	s.registry.SetVehicleInfo("VEH-001", "ABC-1234", "ACME Logistics", "ORD-77")

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/VEH-001/eta", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result eta.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Greater(t, result.DistanceKM, 0.0)
	require.Greater(t, result.EtaMinutes, 0)
	require.False(t, result.Delayed)
}

func TestETAWithoutActiveOrder(t *testing.T) {
	s := newTestServer(t, nil, staticMilestones{})
	postSample(t, s, telemetry.Sample{
		VehicleID: "VEH-002",
		Latitude:  1,
		Longitude: 1,
		Timestamp: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/VEH-002/eta", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteFormats(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	hist := staticRoutes{points: []history.RoutePoint{
		{Index: 0, Latitude: 1, Longitude: 1, Speed: 40, Timestamp: base},
		{Index: 1, Latitude: 1.01, Longitude: 1, Speed: 42, Timestamp: base.Add(time.Minute), CumulativeKM: 1.11},
	}}
	s := newTestServer(t, hist, nil)

	cases := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "application/json", `"cumulative_km"`},
		{"csv", "text/csv", "index,latitude,longitude"},
		{"gpx", "application/gpx+xml", "<trkpt"},
	}
	for _, tc := range cases {
		t.Run("format="+tc.format, func(t *testing.T) {
			url := "/api/vehicles/VEH-001/route"
			if tc.format != "" {
				url += "?format=" + tc.format
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))
			require.Contains(t, rec.Body.String(), tc.contains)
		})
	}
}

func TestRouteRejectsBadTimeRange(t *testing.T) {
	s := newTestServer(t, staticRoutes{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/VEH-001/route?from=yesterday", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetransmissionsListsDegradedVehicles(t *testing.T) {
	s := newTestServer(t, nil, nil)
	postSample(t, s, telemetry.Sample{
		VehicleID: "VEH-001",
		Latitude:  1,
		Longitude: 1,
		Timestamp: time.Now().UTC().Add(-20 * time.Minute),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/retransmissions", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var records []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	require.Len(t, records, 1)
	require.Equal(t, "VEH-001", records[0]["vehicle_id"])
	require.Equal(t, "medium", records[0]["priority"])

	req = httptest.NewRequest(http.MethodGet, "/api/retransmissions?format=csv", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "VEH-001")
}
