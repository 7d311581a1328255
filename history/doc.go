// Package history models recorded vehicle routes for playback and export.
//
// A route is a finite, pre-ordered sequence of points with contiguous 0-based
// indexes, cumulative distance and stop annotations. BuildRoute derives all
// of that from raw samples; Source implementations fetch recorded samples
// from files or a read-only SQLite archive. This package never writes
// telemetry anywhere.
package history
