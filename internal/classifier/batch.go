package classifier

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

// Diagnostic describes a reading dropped by a batch classification.
// Index is the position in the input slice.
type Diagnostic struct {
	Index int
	Value float64
	Err   error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("skipping invalid reading: %v", d.Err)
}

// Sink receives diagnostics for skipped readings.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// LogSink writes one line per diagnostic to a *log.Logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink wraps l; nil means a logger on stderr.
func NewLogSink(l *log.Logger) *LogSink {
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &LogSink{logger: l}
}

func (s *LogSink) Report(d Diagnostic) {
	s.logger.Print(d.String())
}

// CollectSink keeps every diagnostic it receives.
type CollectSink struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (s *CollectSink) Report(d Diagnostic) {
	s.mu.Lock()
	s.diags = append(s.diags, d)
	s.mu.Unlock()
}

// Diagnostics returns a copy of what has been reported so far.
func (s *CollectSink) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	return out
}

// MultiSink fans a diagnostic out to every non-nil sink.
type MultiSink []Sink

func (m MultiSink) Report(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Report(d)
		}
	}
}

// ClassifyBatch classifies readings in order. Readings that fail are left out of
// the result and reported to sink, so the output may be shorter than the input
// and does not line up with it by position. A nil sink drops diagnostics.
func ClassifyBatch(readings []float64, cfg model.SensorConfig, sink Sink) []model.AlertLevel {
	out := make([]model.AlertLevel, 0, len(readings))
	for i, v := range readings {
		level, err := Classify(v, cfg)
		if err != nil {
			if sink != nil {
				sink.Report(Diagnostic{Index: i, Value: v, Err: err})
			}
			continue
		}
		out = append(out, level)
	}
	return out
}

// ClassifyAll is ClassifyBatch with the diagnostics returned instead of reported.
func ClassifyAll(readings []float64, cfg model.SensorConfig) ([]model.AlertLevel, []Diagnostic) {
	var diags []Diagnostic
	levels := ClassifyBatch(readings, cfg, SinkFunc(func(d Diagnostic) {
		diags = append(diags, d)
	}))
	return levels, diags
}
