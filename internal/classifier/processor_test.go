package classifier

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadingProcessorFiltersOutliers(t *testing.T) {
	p := NewReadingProcessor(50)

	assert.True(t, p.Add(10))
	assert.True(t, p.Add(-20))
	assert.True(t, p.Add(50))
	assert.False(t, p.Add(50.5))
	assert.False(t, p.Add(-51))
	assert.False(t, p.Add(math.NaN()))
	assert.False(t, p.Add(math.Inf(1)))

	avg, ok := p.FilteredAverage()
	assert.True(t, ok)
	assert.InDelta(t, 40.0/3.0, avg, 1e-9)
	assert.Equal(t, 3, p.Count())
	assert.Equal(t, 4, p.Rejected())

	p.Reset()
	_, ok = p.FilteredAverage()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Count())
	assert.Equal(t, 0, p.Rejected())
}

func TestReadingProcessorDefaultThreshold(t *testing.T) {
	assert.Equal(t, 100.0, NewReadingProcessor(0).Threshold())
	assert.Equal(t, 100.0, NewReadingProcessor(-3).Threshold())
	assert.Equal(t, 7.5, NewReadingProcessor(7.5).Threshold())
}

func TestReadingProcessorConcurrentAdd(t *testing.T) {
	p := NewReadingProcessor(1000)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, p.Count())
	avg, ok := p.FilteredAverage()
	assert.True(t, ok)
	assert.Equal(t, 1.0, avg)
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 2.5, Average([]float64{1, 2, 3, 4}))
}
