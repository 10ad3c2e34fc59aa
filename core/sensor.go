// Wheel speed sensor
// Couples the asynchronous edge-capture producer with the periodic speed
// estimator. The producer side (CaptureAt) is driven by a hardware edge
// source; the consumer side (PollEstimate) is driven by an external
// fixed-cadence scheduler and never blocks.
package core

import (
	"errors"
	"sync"
	"time"
)

// Estimation bounds. A single-cycle reading outside these is treated as a
// measurement artifact, not propagated.
const (
	// MaxPlausibleKMH is the speed above which a cycle's sample is
	// discarded outright (previous filtered value held).
	MaxPlausibleKMH = 200.0
	// MaxRPM caps the reported RPM.
	MaxRPM = 99999.0
)

var (
	ErrBadTimerFrequency = errors.New("timer frequency must be positive")
	ErrBadEdgeCount      = errors.New("edges per rotation must be positive")
	ErrBadCircumference  = errors.New("wheel circumference must be positive")
	ErrBadIntervals      = errors.New("intervals must satisfy 0 < min edge period < stall timeout")
	ErrNoClock           = errors.New("no clock configured")
)

// Params describes the wheel, the timer and the filtering windows.
type Params struct {
	// TimerFrequency is the tick rate of the down-counting timer, in Hz.
	TimerFrequency uint32
	// EdgesPerRotation is the number of accepted quadrature edges that
	// make up one full shaft rotation.
	EdgesPerRotation int
	// WheelCircumference is the rolling circumference in meters.
	WheelCircumference float64
	// MinEdgePeriod is the debounce window: edges spaced at or below this
	// are rejected as contact bounce.
	MinEdgePeriod time.Duration
	// MinUpdateInterval is the shortest measurement window the estimator
	// will compute over.
	MinUpdateInterval time.Duration
	// StallTimeout is how long the estimator waits without edges before
	// declaring the shaft stopped.
	StallTimeout time.Duration
}

// DefaultParams returns the canonical sensor parameters: a 120 MHz timer,
// a 4-edge encoder wheel of 0.1885 m circumference, 1 ms debounce, 100 ms
// estimation window and a 1 s stall timeout.
func DefaultParams() Params {
	return Params{
		TimerFrequency:     120_000_000,
		EdgesPerRotation:   4,
		WheelCircumference: 0.1885,
		MinEdgePeriod:      time.Millisecond,
		MinUpdateInterval:  100 * time.Millisecond,
		StallTimeout:       time.Second,
	}
}

// Validate checks parameter sanity.
func (p Params) Validate() error {
	if p.TimerFrequency == 0 {
		return ErrBadTimerFrequency
	}
	if p.EdgesPerRotation <= 0 {
		return ErrBadEdgeCount
	}
	if p.WheelCircumference <= 0 {
		return ErrBadCircumference
	}
	if p.MinEdgePeriod <= 0 || p.StallTimeout <= p.MinEdgePeriod || p.MinUpdateInterval <= 0 {
		return ErrBadIntervals
	}
	return nil
}

// window marks where the current measurement interval began.
type window struct {
	edgeCount uint32
	start     Ticks
}

// Sensor owns all estimator state. Construct one per shaft with New; the
// zero value is not usable. The capture path and the estimation path may
// run on different goroutines; cached outputs may be read from any
// goroutine.
type Sensor struct {
	clock Clock

	freqHz         uint32
	edgesPerRot    float64
	minEdgeTicks   Ticks
	minUpdateTicks Ticks
	stallTicks     Ticks

	// Shared producer/consumer state, guarded by mu. The critical section
	// is a handful of field copies so the edge path is never delayed.
	mu  sync.Mutex
	cap capture

	// Estimator-owned state, touched only by PollEstimate.
	win         window
	speedFilter movingAverage
	rpmFilter   movingAverage

	// Cached outputs, guarded by outMu for display readers.
	outMu     sync.RWMutex
	speedKMH  float64
	rpm       float64
	direction Direction

	odometer Odometer
}

// New builds and arms a Sensor. The supplied channel levels establish the
// initial quadrature state; the time reference is sampled from clock.
// Construction is the module's one-time initialization: diagnostics
// counters start at zero and every operation is valid afterwards.
func New(p Params, clock Clock, a, b bool) (*Sensor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		return nil, ErrNoClock
	}
	s := &Sensor{
		clock:          clock,
		freqHz:         p.TimerFrequency,
		edgesPerRot:    float64(p.EdgesPerRotation),
		minEdgeTicks:   TicksFromDuration(p.MinEdgePeriod, p.TimerFrequency),
		minUpdateTicks: TicksFromDuration(p.MinUpdateInterval, p.TimerFrequency),
		stallTicks:     TicksFromDuration(p.StallTimeout, p.TimerFrequency),
	}
	s.odometer.circumference = p.WheelCircumference
	now := clock.Now()
	s.cap.lastState = StateOf(a, b)
	s.cap.lastTime = now
	s.win = window{edgeCount: 0, start: now}
	return s, nil
}

// PollEstimate runs one estimation cycle and returns the filtered speed in
// km/h. It must be called at a bounded, roughly fixed cadence (the
// MinUpdateInterval is the recommended period). Completes synchronously;
// never blocks on the edge source.
//
// The cycle either commits a new measurement window, detects a stall, or
// leaves every output untouched. RPM, direction and distance are updated
// as side effects of a committed cycle.
func (s *Sensor) PollEstimate() float64 {
	now := s.clock.Now()
	snap := s.takeSnapshot()

	edgesDelta := snap.edgeCount - s.win.edgeCount // modular
	elapsed := Elapsed(s.win.start, now)

	switch {
	case elapsed >= s.minUpdateTicks && edgesDelta > 0:
		s.commit(snap, edgesDelta, elapsed, now)
	case elapsed > s.stallTicks:
		s.stall(snap, now)
	default:
		// Too soon, or no new edges but not yet stalled: hold outputs.
	}
	return s.SpeedKMH()
}

// commit computes one measurement window and publishes filtered outputs.
func (s *Sensor) commit(snap snapshot, edgesDelta uint32, elapsed Ticks, now Ticks) {
	rotations := float64(edgesDelta) / s.edgesPerRot
	seconds := elapsed.Seconds(s.freqHz)

	rpm := rotations / seconds * 60
	velocityKMH := rotations * s.odometer.circumference / seconds * 3.6

	// A sample past the plausibility bound is not pushed at all: one
	// corrupt window must not drag the average for three cycles.
	if velocityKMH <= MaxPlausibleKMH {
		if velocityKMH < 0 {
			velocityKMH = 0
		}
		s.speedFilter.Push(velocityKMH)
	}
	if rpm > MaxRPM {
		rpm = MaxRPM
	} else if rpm < 0 {
		rpm = 0
	}
	s.rpmFilter.Push(rpm)

	s.odometer.Add(rotations)

	s.outMu.Lock()
	s.speedKMH = s.speedFilter.Average()
	s.rpm = s.rpmFilter.Average()
	s.direction = resolveDirection(s.direction, snap.vote)
	s.outMu.Unlock()

	s.win = window{edgeCount: snap.edgeCount, start: now}
}

// stall zeroes the outputs after StallTimeout without an accepted edge.
// The window is re-armed so the stall path does not re-trigger every call.
func (s *Sensor) stall(snap snapshot, now Ticks) {
	s.speedFilter.Reset()
	s.rpmFilter.Reset()

	s.outMu.Lock()
	s.speedKMH = 0
	s.rpm = 0
	s.direction = DirectionStopped
	s.outMu.Unlock()

	s.win = window{edgeCount: snap.edgeCount, start: now}
}

// SpeedKMH returns the filtered speed from the last committed cycle.
func (s *Sensor) SpeedKMH() float64 {
	s.outMu.RLock()
	defer s.outMu.RUnlock()
	return s.speedKMH
}

// RPM returns the filtered rotational speed from the last committed cycle.
func (s *Sensor) RPM() float64 {
	s.outMu.RLock()
	defer s.outMu.RUnlock()
	return s.rpm
}

// Direction returns the hysteresis-filtered rotation sense.
func (s *Sensor) Direction() Direction {
	s.outMu.RLock()
	defer s.outMu.RUnlock()
	return s.direction
}

// Distance returns the accumulated travel in meters.
func (s *Sensor) Distance() float64 {
	return s.odometer.Value()
}

// ResetDistance zeroes the odometer. Safe to call at any time; has no
// effect on speed, RPM, direction or the smoothing filters.
func (s *Sensor) ResetDistance() {
	s.odometer.Reset()
}

// Diagnostics returns the accepted-edge count and the total number of
// edge-handler invocations. Both increase monotonically (modulo word
// width) for the life of the sensor.
func (s *Sensor) Diagnostics() (edges, interrupts uint32) {
	snap := s.takeSnapshot()
	return snap.edgeCount, snap.interrupts
}
