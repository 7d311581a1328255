package feed

import (
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func strPtr(s string) *string   { return &s }
func u64Ptr(v uint64) *uint64   { return &v }
func f32Ptr(v float32) *float32 { return &v }

func buildFeed(t *testing.T, entities []*gtfsrtpb.FeedEntity, headerTS uint64) []byte {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: strPtr("2.0"),
			Timestamp:           u64Ptr(headerTS),
		},
		Entity: entities,
	}
	b, err := proto.Marshal(fm)
	require.NoError(t, err)
	return b
}

func vehicleEntity(id string, lat, lon, speedMPS, bearing float32, ts uint64) *gtfsrtpb.FeedEntity {
	e := &gtfsrtpb.FeedEntity{
		Id: strPtr("ent-" + id),
		Vehicle: &gtfsrtpb.VehiclePosition{
			Vehicle:  &gtfsrtpb.VehicleDescriptor{Id: strPtr(id)},
			Position: &gtfsrtpb.Position{Latitude: f32Ptr(lat), Longitude: f32Ptr(lon), Speed: f32Ptr(speedMPS), Bearing: f32Ptr(bearing)},
		},
	}
	if ts > 0 {
		e.Vehicle.Timestamp = u64Ptr(ts)
	}
	return e
}

func TestDecodeVehiclePositions(t *testing.T) {
	ts := uint64(1748779200) // 2025-06-01T12:00:00Z
	b := buildFeed(t, []*gtfsrtpb.FeedEntity{
		vehicleEntity("VEH-001", 59.91, 10.75, 10, 180, ts),
	}, ts)

	samples, err := DecodeVehiclePositions(b)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	require.Equal(t, "VEH-001", s.VehicleID)
	require.InDelta(t, 59.91, s.Latitude, 0.001)
	require.InDelta(t, 36.0, s.Speed, 0.001, "10 m/s is 36 km/h")
	require.Equal(t, 180.0, s.Heading)
	require.Equal(t, time.Unix(int64(ts), 0).UTC(), s.Timestamp)
}

func TestDecodeFallsBackToHeaderTimestamp(t *testing.T) {
	headerTS := uint64(1748779200)
	b := buildFeed(t, []*gtfsrtpb.FeedEntity{
		vehicleEntity("VEH-002", 1, 2, 0, 0, 0),
	}, headerTS)

	samples, err := DecodeVehiclePositions(b)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, time.Unix(int64(headerTS), 0).UTC(), samples[0].Timestamp)
}

func TestDecodeSkipsUnusableEntities(t *testing.T) {
	ts := uint64(1748779200)
	noVehicle := &gtfsrtpb.FeedEntity{Id: strPtr("alert-only")}
	noPosition := &gtfsrtpb.FeedEntity{
		Id:      strPtr("no-pos"),
		Vehicle: &gtfsrtpb.VehiclePosition{Vehicle: &gtfsrtpb.VehicleDescriptor{Id: strPtr("VEH-003")}},
	}
	badLatitude := vehicleEntity("VEH-004", 95, 0, 5, 0, ts)

	b := buildFeed(t, []*gtfsrtpb.FeedEntity{
		noVehicle,
		noPosition,
		badLatitude,
		vehicleEntity("VEH-005", 10, 20, 5, 90, ts),
	}, ts)

	samples, err := DecodeVehiclePositions(b)
	require.NoError(t, err)
	require.Len(t, samples, 1, "only the well-formed entity survives")
	require.Equal(t, "VEH-005", samples[0].VehicleID)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeVehiclePositions([]byte("not a protobuf"))
	require.Error(t, err)
}
