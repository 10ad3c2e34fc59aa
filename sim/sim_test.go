package sim

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tacho/core"
)

func simParams() core.Params {
	return core.Params{
		TimerFrequency:     1_000_000,
		EdgesPerRotation:   4,
		WheelCircumference: 0.5,
		MinEdgePeriod:      time.Millisecond,
		MinUpdateInterval:  100 * time.Millisecond,
		StallTimeout:       time.Second,
	}
}

func newSimRig(t *testing.T) (*core.Sensor, *Wheel, *Clock) {
	t.Helper()
	p := simParams()
	clock := NewClock(p.TimerFrequency, core.MaxTicks)
	sensor, err := core.New(p, clock, true, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sensor, NewWheel(sensor, clock, p, zerolog.Nop()), clock
}

func TestWheelProducesCommandedSpeed(t *testing.T) {
	sensor, wheel, _ := newSimRig(t)

	// 18 km/h on a 0.5 m wheel: 40 edges/s, 25 ms apart. Eight steps fill
	// a 200 ms window exactly.
	wheel.SetSpeed(18)
	if got := wheel.EdgeInterval(); got != 25*time.Millisecond {
		t.Fatalf("edge interval = %v, want 25ms", got)
	}
	for i := 0; i < 8; i++ {
		if !wheel.Step() {
			t.Fatalf("step %d emitted no edge", i)
		}
	}

	if speed := sensor.PollEstimate(); speed != 18 {
		t.Errorf("speed = %g km/h, want 18", speed)
	}
	if got := sensor.Direction(); got != core.DirectionForward {
		t.Errorf("direction = %v, want forward", got)
	}
	if got := sensor.Distance(); got != 1.0 {
		t.Errorf("distance = %g m, want 1", got)
	}
}

func TestWheelReverse(t *testing.T) {
	sensor, wheel, _ := newSimRig(t)

	wheel.SetSpeed(-18)
	for i := 0; i < 8; i++ {
		wheel.Step()
	}
	sensor.PollEstimate()

	if got := sensor.Direction(); got != core.DirectionReverse {
		t.Errorf("direction = %v, want reverse", got)
	}
	if got := sensor.Distance(); got != 1.0 {
		t.Errorf("distance = %g m, want 1 (distance is unsigned)", got)
	}
}

func TestWheelStoppedEmitsNoEdges(t *testing.T) {
	sensor, wheel, clock := newSimRig(t)

	before := clock.Now()
	if wheel.Step() {
		t.Error("stopped wheel emitted an edge")
	}
	if clock.Now() == before {
		t.Error("stopped step did not advance time")
	}
	if edges, _ := sensor.Diagnostics(); edges != 0 {
		t.Errorf("edges = %d, want 0", edges)
	}
}

func TestWheelBounceIsDebounced(t *testing.T) {
	sensor, wheel, _ := newSimRig(t)

	wheel.SetSpeed(18)
	wheel.SetBounce(100 * time.Microsecond)
	for i := 0; i < 8; i++ {
		wheel.Step()
	}

	// Each step fires three interrupts but only the genuine transition
	// survives the minimum-period filter.
	edges, interrupts := sensor.Diagnostics()
	if edges != 8 {
		t.Errorf("edges = %d, want 8", edges)
	}
	if interrupts != 24 {
		t.Errorf("interrupts = %d, want 24", interrupts)
	}
}
