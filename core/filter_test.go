package core

import "testing"

func TestMovingAveragePartialFill(t *testing.T) {
	var m movingAverage
	if got := m.Average(); got != 0 {
		t.Errorf("empty average = %g, want 0", got)
	}
	m.Push(10)
	if got := m.Average(); got != 10 {
		t.Errorf("average after 1 sample = %g, want 10", got)
	}
	m.Push(20)
	if got := m.Average(); got != 15 {
		t.Errorf("average after 2 samples = %g, want 15", got)
	}
}

func TestMovingAverageEviction(t *testing.T) {
	var m movingAverage
	for _, v := range []float64{10, 20, 30} {
		m.Push(v)
	}
	if got := m.Average(); got != 20 {
		t.Errorf("average of [10 20 30] = %g, want 20", got)
	}
	m.Push(40) // evicts 10
	if got := m.Average(); got != 30 {
		t.Errorf("average of [20 30 40] = %g, want 30", got)
	}
}

func TestMovingAverageReset(t *testing.T) {
	var m movingAverage
	m.Push(42)
	m.Push(43)
	m.Reset()
	if got := m.Average(); got != 0 {
		t.Errorf("average after reset = %g, want 0", got)
	}
	m.Push(7)
	if got := m.Average(); got != 7 {
		t.Errorf("average after reset+push = %g, want 7", got)
	}
}
