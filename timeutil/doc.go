// Package timeutil provides testable abstractions over wall-clock time.
//
// Clock covers reading the current time and periodic ticking; Scheduler covers
// one-shot cancellable callbacks. Production code uses RealClock and
// RealScheduler; tests drive MockClock and ManualScheduler by hand so that
// time-dependent logic runs without real delays.
package timeutil
