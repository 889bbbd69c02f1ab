package alert

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"
)

// PointWriter is the blocking write side of the InfluxDB client.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Writer puts a circuit breaker in front of InfluxDB and remembers when the
// last write failed, for /healthz and /readyz.
type Writer struct {
	api     PointWriter
	cb      *gobreaker.CircuitBreaker
	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

// NewWriter opens the breaker after `failures` consecutive errors and keeps it open for openFor.
func NewWriter(w PointWriter, failures uint32, openFor time.Duration) *Writer {
	if failures == 0 {
		failures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Writer{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "influx-writer",
			Timeout: openFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("influx: breaker %s %s -> %s", name, from, to)
			},
		}),
	}
}

// Write stores p; with the breaker open it fails fast with gobreaker.ErrOpenState.
func (w *Writer) Write(ctx context.Context, p *write.Point) error {
	_, err := w.cb.Execute(func() (interface{}, error) {
		return nil, w.api.WritePoint(ctx, p)
	})
	if err != nil {
		w.mu.Lock()
		w.lastErr = time.Now()
		w.mu.Unlock()
		return err
	}
	w.mu.Lock()
	w.counts[p.Name()]++
	w.mu.Unlock()
	return nil
}

// LastErrorAge is the time since the last failed write.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

// Count is the number of points written for a measurement.
func (w *Writer) Count(measurement string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	c := w.counts[measurement]
	w.mu.RUnlock()
	return c
}

func (w *Writer) BreakerState() gobreaker.State {
	return w.cb.State()
}
