package core

import "testing"

func TestResolveDirectionHysteresis(t *testing.T) {
	d := DirectionStopped
	d = resolveDirection(d, 3)
	if d != DirectionStopped {
		t.Errorf("vote 3 flipped direction to %v", d)
	}
	d = resolveDirection(d, 6)
	if d != DirectionForward {
		t.Errorf("vote 6: direction = %v, want forward", d)
	}
	// Dropping back inside the hysteresis band holds forward.
	d = resolveDirection(d, 5)
	if d != DirectionForward {
		t.Errorf("vote 5: direction = %v, want forward held", d)
	}
	d = resolveDirection(d, -5)
	if d != DirectionForward {
		t.Errorf("vote -5: direction = %v, want forward held", d)
	}
	d = resolveDirection(d, -6)
	if d != DirectionReverse {
		t.Errorf("vote -6: direction = %v, want reverse", d)
	}
}

func TestDirectionString(t *testing.T) {
	cases := map[Direction]string{
		DirectionStopped: "stopped",
		DirectionForward: "forward",
		DirectionReverse: "reverse",
	}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("Direction(%d).String() = %q, want %q", d, got, want)
		}
	}
}
