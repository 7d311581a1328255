// Package telemetry defines the raw positional sample model and the state
// classifier that derives connection and movement status from it.
//
// Samples are produced externally (GTFS-RT feed, HTTP ingest) and validated
// at the boundary with ValidateSample before classification. The classifier
// is a pure transformation given an explicit "now"; it never performs I/O.
package telemetry
