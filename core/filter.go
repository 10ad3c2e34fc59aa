package core

// filterDepth is the number of samples averaged for output smoothing.
const filterDepth = 3

// movingAverage is a fixed-capacity ring of recent samples. The average is
// taken over however many slots are filled, so early output is not dragged
// toward zero. No allocation after construction.
type movingAverage struct {
	samples [filterDepth]float64
	next    int
	fill    int
}

// Push adds a sample, overwriting the oldest once full.
func (m *movingAverage) Push(v float64) {
	m.samples[m.next] = v
	m.next = (m.next + 1) % filterDepth
	if m.fill < filterDepth {
		m.fill++
	}
}

// Average returns the mean of the filled slots, or 0 when empty.
func (m *movingAverage) Average() float64 {
	if m.fill == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < m.fill; i++ {
		sum += m.samples[i]
	}
	return sum / float64(m.fill)
}

// Reset empties the filter.
func (m *movingAverage) Reset() {
	m.next = 0
	m.fill = 0
}
