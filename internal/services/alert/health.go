package alert

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ConnChecker is satisfied by mqtt.Client.
type ConnChecker interface {
	IsConnectionOpen() bool
}

type healthHandler struct {
	mqtt   ConnChecker
	writer *Writer
}

func NewHealthHandler(m ConnChecker, w *Writer) http.Handler {
	return &healthHandler{mqtt: m, writer: w}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		InfluxBreaker   string  `json:"influx_breaker"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
	}
	st := status{
		MQTTConnected:   h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		InfluxBreaker:   "disabled",
		LastWriteErrorS: h.writer.LastErrorAge().Seconds(),
	}
	influxOK := true
	if h.writer != nil {
		state := h.writer.BreakerState()
		st.InfluxBreaker = state.String()
		influxOK = state == gobreaker.StateClosed && h.writer.LastErrorAge() > 30*time.Second
	}

	switch {
	case st.MQTTConnected && influxOK:
		st.Status = "ok"
	case st.MQTTConnected:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// readyHandler answers 200 only when the broker is up and Influx has not failed recently.
type readyHandler struct {
	mqtt     ConnChecker
	writer   *Writer
	minError time.Duration
}

func NewReadyHandler(m ConnChecker, w *Writer, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{mqtt: m, writer: w, minError: minOkErrorAge}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen() && h.writer.LastErrorAge() > h.minError
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
