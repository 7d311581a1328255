// Package playback replays a recorded route as a time-indexed, speed-scaled
// animation with media-player controls.
//
// The controller is a synchronous state machine; advancement happens on
// one-shot callbacks scheduled through an injected timeutil.Scheduler, so the
// whole transition table is testable without wall-clock delays. Each open
// historical view owns its own controller; instances share no state.
package playback
