package classifier

import (
	"math"
	"sync"
)

const defaultOutlierThreshold = 100.0

// ReadingProcessor accumulates readings and drops outliers whose magnitude
// exceeds a fixed threshold. Safe for concurrent use.
type ReadingProcessor struct {
	mu        sync.Mutex
	threshold float64
	readings  []float64
	rejected  int
}

// NewReadingProcessor uses 100 when threshold is not positive.
func NewReadingProcessor(threshold float64) *ReadingProcessor {
	if threshold <= 0 || math.IsNaN(threshold) {
		threshold = defaultOutlierThreshold
	}
	return &ReadingProcessor{threshold: threshold}
}

func (p *ReadingProcessor) Threshold() float64 { return p.threshold }

// Add stores value unless it is NaN, infinite or beyond the threshold.
func (p *ReadingProcessor) Add(value float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if math.IsNaN(value) || math.IsInf(value, 0) || math.Abs(value) > p.threshold {
		p.rejected++
		return false
	}
	p.readings = append(p.readings, value)
	return true
}

// FilteredAverage is the mean of the accepted readings; ok is false when there are none.
func (p *ReadingProcessor) FilteredAverage() (avg float64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.readings) == 0 {
		return 0, false
	}
	return Average(p.readings), true
}

func (p *ReadingProcessor) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.readings)
}

func (p *ReadingProcessor) Rejected() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rejected
}

// Reset clears accepted readings and the rejection count, keeping the buffer.
func (p *ReadingProcessor) Reset() {
	p.mu.Lock()
	p.readings = p.readings[:0]
	p.rejected = 0
	p.mu.Unlock()
}

// Average is the arithmetic mean of values, 0 for an empty slice.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
