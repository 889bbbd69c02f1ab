package alert

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
)

// Metrics are the service counters exposed on /metrics. A nil *Metrics is a no-op.
type Metrics struct {
	classified     *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	decodeErrors   prometheus.Counter
	unknownSensors prometheus.Counter
	writeErrors    prometheus.Counter
	publishErrors  prometheus.Counter
	normalized     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		classified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "readings_classified_total",
			Help: "Readings classified, by alert level.",
		}, []string{"level"}),
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "readings_skipped_total",
			Help: "Readings dropped as out of range, by violated bound.",
		}, []string{"kind"}),
		decodeErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "readings_decode_errors_total",
			Help: "Payloads that could not be decoded into a reading.",
		}),
		unknownSensors: f.NewCounter(prometheus.CounterOpts{
			Name: "readings_unknown_sensor_total",
			Help: "Readings from sensors missing in the catalog.",
		}),
		writeErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "influx_write_errors_total",
			Help: "Alert points InfluxDB did not accept (breaker open included).",
		}),
		publishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "alert_publish_errors_total",
			Help: "Alert events that could not be published.",
		}),
		normalized: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reading_normalized_position",
			Help:    "Normalized position of classified readings inside their envelope.",
			Buckets: []float64{0.1, 0.2, classifier.WarningThreshold, 0.4, 0.5, 0.6, classifier.CriticalThreshold, 0.8, 0.9, 1},
		}),
	}
}

func (m *Metrics) observeClassified(level string, normalized float64) {
	if m == nil {
		return
	}
	m.classified.WithLabelValues(level).Inc()
	m.normalized.Observe(normalized)
}

func (m *Metrics) incDecodeError() {
	if m != nil {
		m.decodeErrors.Inc()
	}
}

func (m *Metrics) incUnknownSensor() {
	if m != nil {
		m.unknownSensors.Inc()
	}
}

func (m *Metrics) incWriteError() {
	if m != nil {
		m.writeErrors.Inc()
	}
}

func (m *Metrics) incPublishError() {
	if m != nil {
		m.publishErrors.Inc()
	}
}

// Report makes Metrics a classifier.Sink counting skipped readings.
func (m *Metrics) Report(d classifier.Diagnostic) {
	if m == nil {
		return
	}
	kind := "unknown"
	if oor, ok := classifier.AsOutOfRange(d.Err); ok {
		kind = oor.Kind.String()
	}
	m.skipped.WithLabelValues(kind).Inc()
}
