package core

import "sync"

// Odometer accumulates travelled distance in meters. Accumulation happens
// only inside a successful estimation cycle; Reset may be called from any
// goroutine at any time (e.g. a panel button) without coordinating with
// the estimator.
type Odometer struct {
	mu            sync.Mutex
	meters        float64
	circumference float64
}

// Add integrates a rotation delta into distance.
func (o *Odometer) Add(rotations float64) {
	o.mu.Lock()
	o.meters += rotations * o.circumference
	o.mu.Unlock()
}

// Value returns the accumulated distance in meters.
func (o *Odometer) Value() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.meters
}

// Reset snaps the distance to exactly zero.
func (o *Odometer) Reset() {
	o.mu.Lock()
	o.meters = 0
	o.mu.Unlock()
}
