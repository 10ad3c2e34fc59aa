// Quadrature edge capture
// Decodes two-channel quadrature transitions into direction votes and an
// accepted-edge count, with debounce against contact bounce.
package core

// QuadState is the combined level of both channels, encoded as
// (channelA << 1) | channelB.
type QuadState uint8

const (
	StateLowLow   QuadState = 0 // A=0 B=0
	StateLowHigh  QuadState = 1 // A=0 B=1
	StateHighLow  QuadState = 2 // A=1 B=0
	StateHighHigh QuadState = 3 // A=1 B=1
)

// StateOf combines two channel levels into a QuadState.
func StateOf(a, b bool) QuadState {
	var s QuadState
	if a {
		s |= 2
	}
	if b {
		s |= 1
	}
	return s
}

// voteTable maps an (old, new) state transition to a direction vote.
// Forward rotation walks 11→01→00→10→11 (+1 each step), reverse walks
// 11→10→00→01→11 (-1 each step). Diagonal transitions cannot occur under
// correct quadrature timing and vote 0.
var voteTable = [4][4]int8{
	//        00  01  10  11
	/* 00 */ {0, +1, -1, 0},
	/* 01 */ {-1, 0, 0, +1},
	/* 10 */ {+1, 0, 0, -1},
	/* 11 */ {0, -1, +1, 0},
}

// TransitionVote returns the direction vote for an old→new state change.
func TransitionVote(old, new QuadState) int8 {
	return voteTable[old&3][new&3]
}

// voteClamp bounds the accumulated direction vote counter.
const voteClamp = 100

// capture holds the shared state written by the edge-event producer and
// snapshotted by the estimator. All access goes through Sensor.mu: the two
// channel interrupt paths are serialized against each other and against the
// consumer by the same lock.
type capture struct {
	lastState  QuadState
	lastTime   Ticks
	edgeCount  uint32 // accepted edges, wraps at word width
	vote       int32  // clamped to [-voteClamp, voteClamp]
	interrupts uint32 // every handler invocation, accepted or not
}

// snapshot is an indivisible copy of the capture counters taken under the
// producer's lock. All estimator math uses the snapshot only.
type snapshot struct {
	edgeCount  uint32
	vote       int32
	interrupts uint32
}

// CaptureAt records one physical transition on either channel. The caller
// supplies the timer sample taken at the moment of the edge (the interrupt
// handler samples time before anything else) and the two channel levels.
//
// A transition to the same state is a glitch and is ignored entirely. A
// transition whose spacing from the previous accepted edge falls outside
// (MinEdgePeriod, StallTimeout) is rejected as noise, but still becomes the
// reference point for the next spacing check.
func (s *Sensor) CaptureAt(now Ticks, a, b bool) {
	state := StateOf(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cap.interrupts++

	if state == s.cap.lastState {
		return
	}

	dt := Elapsed(s.cap.lastTime, now)
	if dt > s.minEdgeTicks && dt < s.stallTicks {
		s.cap.edgeCount++
		s.cap.vote += int32(TransitionVote(s.cap.lastState, state))
		if s.cap.vote > voteClamp {
			s.cap.vote = voteClamp
		} else if s.cap.vote < -voteClamp {
			s.cap.vote = -voteClamp
		}
	}
	s.cap.lastState = state
	s.cap.lastTime = now
}

// Capture samples the sensor's own clock and records a transition. Intended
// for callers whose edge source and time source are the same device.
func (s *Sensor) Capture(a, b bool) {
	s.CaptureAt(s.clock.Now(), a, b)
}

// takeSnapshot copies the shared counters in one critical section.
func (s *Sensor) takeSnapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		edgeCount:  s.cap.edgeCount,
		vote:       s.cap.vote,
		interrupts: s.cap.interrupts,
	}
}
