// Package feed adapts external telemetry transports to the registry's
// sample handler.
//
// The core makes no assumption about transport beyond roughly periodic
// samples per vehicle; this package currently provides a GTFS-RT
// VehiclePositions poller. HTTP push ingest lives in the service layer.
package feed
