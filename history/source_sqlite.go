package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
)

// SQLiteSource reads recorded routes from a telemetry archive produced by the
// ingestion backend. The connection is opened read-only; this process never
// writes the archive.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLiteSource opens the archive at path in read-only mode.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open telemetry archive: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// Route queries the archive for one vehicle's samples in [from, to] and
// derives the route from them.
func (s *SQLiteSource) Route(ctx context.Context, vehicleID string, from, to time.Time) ([]RoutePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vehicle_id, timestamp, latitude, longitude, speed, heading
		 FROM telemetry
		 WHERE vehicle_id = ? AND timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp`,
		vehicleID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query telemetry archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []telemetry.Sample
	for rows.Next() {
		var smp telemetry.Sample
		if err := rows.Scan(&smp.VehicleID, &smp.Timestamp, &smp.Latitude, &smp.Longitude, &smp.Speed, &smp.Heading); err != nil {
			return nil, fmt.Errorf("scan telemetry row: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry rows: %w", err)
	}
	return BuildRoute(samples), nil
}
