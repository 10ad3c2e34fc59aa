package core

import "time"

// Ticks is a raw sample of the hardware timer. The timer counts DOWN and
// wraps from 0 to MaxTicks, matching the TM4C-style periodic timers the
// sensor was designed against.
type Ticks uint32

// MaxTicks is the largest raw counter value.
const MaxTicks Ticks = 0xFFFFFFFF

// Clock is the injectable time source sampled by the capture and
// estimation paths. Implementations must expose the same down-counting,
// wrapping counter that timestamps the edge stream, or edge spacing and
// window math will disagree.
type Clock interface {
	Now() Ticks
}

// Elapsed returns the number of ticks between two samples of a
// down-counting timer, where older was sampled before newer. Correct
// across a single counter wrap.
func Elapsed(older, newer Ticks) Ticks {
	if older >= newer {
		return older - newer
	}
	return older + (MaxTicks - newer) + 1
}

// TicksFromDuration converts a duration to ticks at the given timer frequency.
func TicksFromDuration(d time.Duration, freqHz uint32) Ticks {
	return Ticks(d.Seconds() * float64(freqHz))
}

// Seconds converts a tick count to seconds at the given timer frequency.
func (t Ticks) Seconds(freqHz uint32) float64 {
	return float64(t) / float64(freqHz)
}
