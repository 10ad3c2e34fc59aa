package core

// Direction is the hysteresis-filtered rotation sense.
type Direction uint8

const (
	DirectionStopped Direction = iota
	DirectionForward
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return "stopped"
	}
}

// voteThreshold is the hysteresis margin: the vote counter must exceed it
// in magnitude before the reported direction changes.
const voteThreshold = 5

// resolveDirection maps the accumulated vote counter to a direction.
// Sticky: within [-voteThreshold, voteThreshold] the previous value holds,
// so the output cannot flap near zero crossings.
func resolveDirection(prev Direction, vote int32) Direction {
	switch {
	case vote > voteThreshold:
		return DirectionForward
	case vote < -voteThreshold:
		return DirectionReverse
	default:
		return prev
	}
}
