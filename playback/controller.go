package playback

import (
	"math"
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/history"
	"github.com/theoremus-urban-solutions/fleet-tracking/timeutil"
)

// Mode is the playback state.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModePlaying Mode = "playing"
	ModePaused  Mode = "paused"
	ModeStopped Mode = "stopped"
)

// DefaultBaseTick is the inter-frame delay at speed multiplier 1.
const DefaultBaseTick = time.Second

// Speeds are the accepted speed multipliers. SetSpeed rejects anything else.
var Speeds = []int{1, 2, 5, 10}

// Frame is emitted to the subscriber on every index change.
type Frame struct {
	Point history.RoutePoint
	Index int
	State State
}

// State is a snapshot of the controller's externally visible state. Progress
// is a percentage over the index range; Elapsed is the wall-clock-equivalent
// route time covered so far at multiplier 1.
type State struct {
	Mode     Mode          `json:"mode"`
	Index    int           `json:"index"`
	Speed    int           `json:"speed"`
	Progress float64       `json:"progress"`
	Elapsed  time.Duration `json:"elapsed"`
}

// FrameFunc receives frames. It is called synchronously from the controller;
// it must not call back into the controller.
type FrameFunc func(Frame)

// Controller replays one loaded route. All methods are safe for concurrent
// use; ticks cancelled by pause/stop can never fire late thanks to a
// generation counter.
//
// Advancement moves exactly one point per tick and divides the base tick
// interval by the speed multiplier, so a higher multiplier is strictly
// faster and a given multiplier is deterministic.
//
// When advancing would pass the last index the controller transitions to
// stopped and stays on the last point; the index reset to 0 belongs to the
// Stop operation, not to reaching the end.
type Controller struct {
	mu        sync.Mutex
	scheduler timeutil.Scheduler
	baseTick  time.Duration
	onFrame   FrameFunc

	points []history.RoutePoint
	idx    int
	mode   Mode
	speed  int
	gen    uint64
	cancel func()
}

// NewController creates an idle controller with no points loaded.
func NewController(scheduler timeutil.Scheduler, baseTick time.Duration) *Controller {
	if baseTick <= 0 {
		baseTick = DefaultBaseTick
	}
	return &Controller{
		scheduler: scheduler,
		baseTick:  baseTick,
		mode:      ModeIdle,
		speed:     1,
	}
}

// OnFrame registers the frame subscriber. Only one subscriber is supported;
// the view layer fans out further if it needs to.
func (c *Controller) OnFrame(fn FrameFunc) {
	c.mu.Lock()
	c.onFrame = fn
	c.mu.Unlock()
}

// Load replaces the point sequence, resets the index to 0 and the mode to
// idle. Any running playback is cancelled.
func (c *Controller) Load(points []history.RoutePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTickLocked()
	c.points = points
	c.idx = 0
	c.mode = ModeIdle
}

// Play starts or resumes advancement. It is a no-op while already playing or
// when no points are loaded.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModePlaying || len(c.points) == 0 {
		return
	}
	if c.mode == ModeStopped {
		c.idx = 0
	}
	c.mode = ModePlaying
	c.scheduleTickLocked()
}

// Pause halts advancement and keeps the current index. Only valid from
// playing; anything else is a no-op.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModePlaying {
		return
	}
	c.cancelTickLocked()
	c.mode = ModePaused
}

// Stop halts advancement and resets the index to the start.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTickLocked()
	c.mode = ModeStopped
	c.idx = 0
}

// Reset behaves like Stop but leaves the controller idle, as if the sequence
// had just been loaded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTickLocked()
	c.mode = ModeIdle
	c.idx = 0
}

// StepForward moves one point ahead. Invalid while playing; a step at the
// last index is a no-op, not an error.
func (c *Controller) StepForward() {
	c.step(1)
}

// StepBackward moves one point back, clamped at index 0. Invalid while
// playing.
func (c *Controller) StepBackward() {
	c.step(-1)
}

func (c *Controller) step(delta int) {
	c.mu.Lock()
	if c.mode == ModePlaying || len(c.points) == 0 {
		c.mu.Unlock()
		return
	}
	next := c.idx + delta
	if next < 0 || next > len(c.points)-1 || next == c.idx {
		c.mu.Unlock()
		return
	}
	c.idx = next
	frame, fn := c.frameLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}

// SeekTo jumps to an index, clamped to the valid range. Playback mode is
// unchanged; a live tick keeps running from the new position.
func (c *Controller) SeekTo(index int) {
	c.mu.Lock()
	if len(c.points) == 0 {
		c.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.points)-1 {
		index = len(c.points) - 1
	}
	if index == c.idx {
		c.mu.Unlock()
		return
	}
	c.idx = index
	frame, fn := c.frameLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}

// SeekToProgress jumps to the index nearest the given percentage of the
// route, by round-half-up over the index range: on 10 points, 50% resolves
// to index 5.
func (c *Controller) SeekToProgress(percent float64) {
	c.mu.Lock()
	n := len(c.points)
	c.mu.Unlock()
	if n == 0 {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	c.SeekTo(int(math.Round(percent / 100 * float64(n-1))))
}

// SetSpeed changes the advancement rate without changing mode. Multipliers
// outside Speeds are ignored. A live tick is rescheduled at the new rate.
func (c *Controller) SetSpeed(multiplier int) {
	valid := false
	for _, s := range Speeds {
		if s == multiplier {
			valid = true
			break
		}
	}
	if !valid {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = multiplier
	if c.mode == ModePlaying {
		c.cancelTickLocked()
		c.scheduleTickLocked()
	}
}

// Snapshot returns the current externally visible state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{Mode: c.mode, Index: c.idx, Speed: c.speed}
	if n := len(c.points); n > 1 {
		s.Progress = float64(c.idx) / float64(n-1) * 100
	}
	s.Elapsed = time.Duration(c.idx) * c.baseTick
	return s
}

func (c *Controller) frameLocked() (Frame, FrameFunc) {
	return Frame{Point: c.points[c.idx], Index: c.idx, State: c.stateLocked()}, c.onFrame
}

func (c *Controller) scheduleTickLocked() {
	gen := c.gen
	interval := c.baseTick / time.Duration(c.speed)
	c.cancel = c.scheduler.Schedule(interval, func() { c.tick(gen) })
}

// cancelTickLocked invalidates any pending tick. Bumping the generation also
// guards against a callback that already left the scheduler but has not taken
// the lock yet.
func (c *Controller) cancelTickLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.mode != ModePlaying {
		c.mu.Unlock()
		return
	}
	if c.idx >= len(c.points)-1 {
		// End of route: hold the last frame and stop advancing.
		c.cancelTickLocked()
		c.mode = ModeStopped
		c.mu.Unlock()
		return
	}
	c.idx++
	frame, fn := c.frameLocked()
	c.scheduleTickLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}
