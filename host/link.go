// Package host consumes the MCU's edge-event stream and feeds it into the
// speed estimator, and publishes estimates to display clients.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tacho/core"
	"tacho/protocol"
)

// RemoteClock mirrors the MCU's down-counting timer on the host. Every
// edge report and clock beacon carries a raw counter sample; the latest
// one is the host's view of "now" on the MCU timeline.
//
// Before the first frame arrives Now reports zero. The estimator's first
// poll then re-arms its measurement window against a real sample, so the
// startup transient only delays the first estimate by one poll period.
type RemoteClock struct {
	tick atomic.Uint32
}

// Now returns the most recently observed MCU counter sample.
func (c *RemoteClock) Now() core.Ticks {
	return core.Ticks(c.tick.Load())
}

// Observe records a counter sample from the stream.
func (c *RemoteClock) Observe(tick uint32) {
	c.tick.Store(tick)
}

// LinkStats counts stream-level events for diagnostics.
type LinkStats struct {
	Edges        uint32 // edge reports applied
	Beacons      uint32 // clock beacons applied
	ParseErrors  uint32 // payloads that failed to decode
	FrameErrors  uint32 // CRC failures seen by the scanner
	FrameResyncs uint32 // times framing was lost
	SeqGaps      uint32 // frames dropped upstream
}

// Link pumps the serial byte stream into the sensor: edge reports become
// CaptureAt calls, beacons advance the remote clock. One Link per sensor.
type Link struct {
	r       io.Reader
	sensor  *core.Sensor
	clock   *RemoteClock
	scanner *protocol.FrameScanner
	log     zerolog.Logger

	edges       atomic.Uint32
	beacons     atomic.Uint32
	parseErrors atomic.Uint32
}

// NewLink wires a frame source to a sensor. The clock must be the same
// RemoteClock the sensor was constructed with.
func NewLink(r io.Reader, sensor *core.Sensor, clock *RemoteClock, log zerolog.Logger) *Link {
	l := &Link{
		r:      r,
		sensor: sensor,
		clock:  clock,
		log:    log,
	}
	l.scanner = protocol.NewFrameScanner(l.handlePayload)
	return l
}

// Run reads the stream until it ends, the context is cancelled or a read
// fails. A clean EOF returns nil.
func (l *Link) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := l.r.Read(buf)
		if n > 0 {
			l.scanner.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

// Stats returns a snapshot of the link counters.
func (l *Link) Stats() LinkStats {
	sc := l.scanner.Stats()
	return LinkStats{
		Edges:        l.edges.Load(),
		Beacons:      l.beacons.Load(),
		ParseErrors:  l.parseErrors.Load(),
		FrameErrors:  sc.CRCErrors,
		FrameResyncs: sc.Resyncs,
		SeqGaps:      sc.SeqGaps,
	}
}

func (l *Link) handlePayload(payload []byte) {
	m, err := protocol.ParseMessage(payload)
	if err != nil {
		l.parseErrors.Add(1)
		l.log.Debug().Err(err).Msg("undecodable payload")
		return
	}
	switch v := m.(type) {
	case protocol.EdgeReport:
		l.clock.Observe(v.Tick)
		l.sensor.CaptureAt(core.Ticks(v.Tick), v.State&2 != 0, v.State&1 != 0)
		l.edges.Add(1)
	case protocol.ClockBeacon:
		l.clock.Observe(v.Tick)
		l.beacons.Add(1)
	}
}
