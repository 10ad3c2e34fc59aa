// Package sim provides a deterministic synthetic wheel for testing the
// estimator and for running the daemon without hardware.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tacho/core"
)

// Clock is a virtual down-counting timer, stepped by the simulation.
type Clock struct {
	freqHz uint32

	mu   sync.Mutex
	tick core.Ticks
}

// NewClock creates a clock at the given frequency and raw start value.
func NewClock(freqHz uint32, start core.Ticks) *Clock {
	return &Clock{freqHz: freqHz, tick: start}
}

// Now returns the current raw counter value.
func (c *Clock) Now() core.Ticks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Advance moves virtual time forward, decrementing the counter.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.tick -= core.TicksFromDuration(d, c.freqHz)
	c.mu.Unlock()
}

// Wheel spins a quadrature encoder against a sensor: each step emits one
// channel transition at the spacing implied by the commanded speed.
type Wheel struct {
	sensor *core.Sensor
	clock  *Clock
	log    zerolog.Logger

	circumference float64
	edgesPerRot   float64

	mu       sync.Mutex
	speedKMH float64 // negative spins the wheel in reverse
	state    core.QuadState

	// bounce, when non-zero, follows every genuine edge with a spurious
	// transition after this interval, to exercise the debounce path.
	bounce time.Duration
}

// forwardWalk is the quadrature cycle in the forward direction.
var forwardWalk = [4]core.QuadState{
	core.StateHighHigh, core.StateLowHigh, core.StateLowLow, core.StateHighLow,
}

// NewWheel creates a wheel matched to the sensor's parameters. The wheel
// starts in state 11 (both channels pulled up), the same state a sensor
// is armed with.
func NewWheel(sensor *core.Sensor, clock *Clock, p core.Params, log zerolog.Logger) *Wheel {
	return &Wheel{
		sensor:        sensor,
		clock:         clock,
		log:           log,
		circumference: p.WheelCircumference,
		edgesPerRot:   float64(p.EdgesPerRotation),
		state:         core.StateHighHigh,
	}
}

// SetSpeed commands the simulated ground speed in km/h. Zero stops the
// wheel; negative values reverse it.
func (w *Wheel) SetSpeed(kmh float64) {
	w.mu.Lock()
	w.speedKMH = kmh
	w.mu.Unlock()
}

// SetBounce enables contact-bounce injection after every edge.
func (w *Wheel) SetBounce(d time.Duration) {
	w.mu.Lock()
	w.bounce = d
	w.mu.Unlock()
}

// EdgeInterval returns the time between transitions at the current
// speed, or 0 if the wheel is stopped.
func (w *Wheel) EdgeInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.edgeIntervalLocked()
}

func (w *Wheel) edgeIntervalLocked() time.Duration {
	speed := w.speedKMH
	if speed < 0 {
		speed = -speed
	}
	if speed == 0 {
		return 0
	}
	edgesPerSec := speed / 3.6 / w.circumference * w.edgesPerRot
	return time.Duration(float64(time.Second) / edgesPerSec)
}

// Step advances virtual time to the next transition and emits it.
// Reports whether an edge was emitted (a stopped wheel emits none and
// advances time by the idle interval instead).
func (w *Wheel) Step() bool {
	w.mu.Lock()
	interval := w.edgeIntervalLocked()
	reverse := w.speedKMH < 0
	bounce := w.bounce
	if interval == 0 {
		w.mu.Unlock()
		w.clock.Advance(10 * time.Millisecond)
		return false
	}
	w.state = w.nextState(reverse)
	state := w.state
	w.mu.Unlock()

	w.clock.Advance(interval)
	w.sensor.CaptureAt(w.clock.Now(), state&2 != 0, state&1 != 0)

	if bounce > 0 {
		// A contact bounce flips the state briefly; the sensor must
		// reject the pair as noise.
		w.clock.Advance(bounce)
		w.sensor.CaptureAt(w.clock.Now(), state&2 == 0, state&1 != 0)
		w.clock.Advance(bounce)
		w.sensor.CaptureAt(w.clock.Now(), state&2 != 0, state&1 != 0)
	}
	return true
}

// nextState walks the quadrature cycle one position. Callers hold w.mu.
func (w *Wheel) nextState(reverse bool) core.QuadState {
	idx := 0
	for i, s := range forwardWalk {
		if s == w.state {
			idx = i
			break
		}
	}
	if reverse {
		idx = (idx + 3) % 4
	} else {
		idx = (idx + 1) % 4
	}
	return forwardWalk[idx]
}

// Run emits edges in real time until the context is cancelled. Virtual
// time tracks wall time closely enough for the daemon's poll ticker.
func (w *Wheel) Run(ctx context.Context) error {
	w.log.Info().Msg("simulated wheel running")
	for {
		interval := w.EdgeInterval()
		sleep := interval
		if sleep == 0 || sleep > 10*time.Millisecond {
			sleep = 10 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		w.Step()
	}
}
