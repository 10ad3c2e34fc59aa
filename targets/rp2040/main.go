//go:build rp2040

// Wheel-speed sensor firmware for the RP2040: timestamps quadrature
// transitions in the pin interrupt handler and streams them to the host
// as framed edge reports over USB CDC. All estimation happens host-side.
package main

import (
	"machine"
	"runtime/volatile"

	"tacho/core"
	"tacho/protocol"
)

const (
	pinA = machine.GPIO2
	pinB = machine.GPIO3

	// beaconTicks spaces clock beacons 100 ms apart so the host's view
	// of the timer never goes stale while the wheel is stopped.
	beaconTicks = timerFrequencyHz / 10
)

// edgeRing buffers timestamped edges between the interrupt handler and
// the main loop. Power of two so the indices wrap with a mask; no
// allocation on the capture path.
const ringSize = 64

var (
	ring     [ringSize]protocol.EdgeReport
	ringHead volatile.Register32 // written by the interrupt handler
	ringTail uint32              // owned by the main loop
)

func captureEdge(machine.Pin) {
	tick := readTimer()
	state := uint8(0)
	if pinA.Get() {
		state |= 2
	}
	if pinB.Get() {
		state |= 1
	}

	head := ringHead.Get()
	if head-ringTail >= ringSize {
		return // full: drop the edge, the estimator tolerates gaps
	}
	ring[head&(ringSize-1)] = protocol.EdgeReport{Tick: tick, State: state}
	ringHead.Set(head + 1)
}

func main() {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	pinA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinB.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinA.SetInterrupt(machine.PinRising|machine.PinFalling, captureEdge)
	pinB.SetInterrupt(machine.PinRising|machine.PinFalling, captureEdge)

	fw := protocol.NewFrameWriter(machine.Serial)
	lastBeacon := core.Ticks(readTimer())

	for {
		for ringTail != ringHead.Get() {
			report := ring[ringTail&(ringSize-1)]
			ringTail++
			fw.WriteMessage(report)
		}

		now := core.Ticks(readTimer())
		if core.Elapsed(lastBeacon, now) >= beaconTicks {
			fw.WriteMessage(protocol.ClockBeacon{Tick: uint32(now)})
			lastBeacon = now
		}
	}
}
