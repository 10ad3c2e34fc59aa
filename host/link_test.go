package host

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tacho/core"
	"tacho/protocol"
)

func linkParams() core.Params {
	return core.Params{
		TimerFrequency:     1_000_000,
		EdgesPerRotation:   4,
		WheelCircumference: 0.5,
		MinEdgePeriod:      time.Millisecond,
		MinUpdateInterval:  100 * time.Millisecond,
		StallTimeout:       time.Second,
	}
}

// buildStream frames a forward quadrature rotation: n edges spaced gap
// ticks apart on a down-counter starting at start, then a final beacon.
func buildStream(t *testing.T, start uint32, n int, gap uint32, final uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	fw := protocol.NewFrameWriter(&buf)

	states := []uint8{1, 0, 2, 3} // forward walk from state 11
	tick := start
	for i := 0; i < n; i++ {
		tick -= gap
		if err := fw.WriteMessage(protocol.EdgeReport{Tick: tick, State: states[i%4]}); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}
	if err := fw.WriteMessage(protocol.ClockBeacon{Tick: final}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	return buf.Bytes()
}

func TestLinkDrivesSensor(t *testing.T) {
	const start = 0x40000000

	clock := &RemoteClock{}
	clock.Observe(start)
	sensor, err := core.New(linkParams(), clock, true, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 8 edges 10 ms apart, then a beacon placing "now" 200 ms after the
	// window opened: 2 rotations in 0.2 s.
	stream := buildStream(t, start, 8, 10_000, start-200_000)
	link := NewLink(bytes.NewReader(stream), sensor, clock, zerolog.Nop())
	if err := link.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	speed := sensor.PollEstimate()
	want := 2.0 * 0.5 / 0.2 * 3.6
	if diff := speed - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("speed = %g km/h, want %g", speed, want)
	}
	if got := sensor.Direction(); got != core.DirectionForward {
		t.Errorf("direction = %v, want forward", got)
	}

	st := link.Stats()
	if st.Edges != 8 || st.Beacons != 1 {
		t.Errorf("stats = %+v, want 8 edges and 1 beacon", st)
	}
	if st.ParseErrors != 0 || st.FrameErrors != 0 || st.SeqGaps != 0 {
		t.Errorf("stream errors: %+v", st)
	}
}

func TestLinkRemoteClockTracksBeacons(t *testing.T) {
	clock := &RemoteClock{}
	if clock.Now() != 0 {
		t.Errorf("unobserved clock = %d, want 0", clock.Now())
	}
	clock.Observe(12345)
	if clock.Now() != 12345 {
		t.Errorf("clock = %d, want 12345", clock.Now())
	}
}

func TestLinkSurvivesCorruptFrame(t *testing.T) {
	const start = 0x40000000

	clock := &RemoteClock{}
	clock.Observe(start)
	sensor, err := core.New(linkParams(), clock, true, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	fw := protocol.NewFrameWriter(&buf)
	fw.WriteMessage(protocol.EdgeReport{Tick: start - 10_000, State: 1})
	head := buf.Len()
	fw.WriteMessage(protocol.EdgeReport{Tick: start - 20_000, State: 0})
	stream := append([]byte(nil), buf.Bytes()...)
	stream[head+2] ^= 0xFF // corrupt second frame's payload

	link := NewLink(bytes.NewReader(stream), sensor, clock, zerolog.Nop())
	if err := link.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	st := link.Stats()
	if st.Edges != 1 {
		t.Errorf("edges = %d, want 1 (corrupt frame dropped)", st.Edges)
	}
	if st.FrameErrors != 1 {
		t.Errorf("frame errors = %d, want 1", st.FrameErrors)
	}
}
