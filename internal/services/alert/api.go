package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

// APIError is the JSON error body of every handler.
type APIError struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Value   *float64 `json:"value,omitempty"`
	Bound   *float64 `json:"bound,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func toAPIError(err error) *APIError {
	if oor, ok := classifier.AsOutOfRange(err); ok {
		v, b := oor.Value, oor.Bound
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "OUT_OF_RANGE",
			Message: oor.Error(),
			Kind:    oor.Kind.String(),
			Value:   &v,
			Bound:   &b,
		}
	}
	switch {
	case errors.Is(err, config.ErrUnknownSensor):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case isBadRequest(err):
		return &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *APIError) {
	writeJSON(w, e.Status, e)
}

// NewClassifyHandler serves POST /classify.
//
//	{"config":{"name":"temp","min_value":0,"max_value":100},"readings":[-5,10,150,90]}
//	{"sensor_id":"temp-1","value":42}
func NewClassifyHandler(ev *Evaluator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, &APIError{Status: http.StatusMethodNotAllowed, Code: "METHOD_NOT_ALLOWED", Message: r.Method})
			return
		}
		var req ClassifyRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: err.Error()})
			return
		}
		resp, err := ev.Evaluate(req)
		if err != nil {
			writeError(w, toAPIError(err))
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// AlertRecord is one row of GET /alerts/latest.
type AlertRecord struct {
	SensorID string  `json:"sensor_id,omitempty"`
	Level    string  `json:"level,omitempty"`
	Value    float64 `json:"value"`
	Time     string  `json:"time"` // RFC3339
}

type alertQueryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
	Level     model.AlertLevel
}

func parseAlertQuery(r *http.Request, defMin, defLim, defTOms int) (alertQueryParams, error) {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	p := alertQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
	if lv := strings.TrimSpace(q.Get("level")); lv != "" {
		level, err := model.ParseAlertLevel(strings.ToLower(lv))
		if err != nil {
			return p, err
		}
		p.Level = level
	}
	return p, nil
}

func buildAlertFlux(bucket string, p alertQueryParams) string {
	levelFilter := ""
	if p.Level != "" {
		levelFilter = fmt.Sprintf("\n  |> filter(fn: (r) => r.level == %q)", string(p.Level))
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q and r._field == "value")%s
  |> keep(columns: ["_time","_value","sensor_id","level"])
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, p.Minutes, alertMeasurement, levelFilter, p.Limit)
}

// AlertQuerier is the query side of the InfluxDB client.
type AlertQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// NewAlertsLatestHandler serves GET /alerts/latest?limit=20[&minutes=1440][&level=critical].
// Influx failures answer 200 with an empty list and an X-Error header so dashboards keep rendering.
func NewAlertsLatestHandler(q AlertQuerier, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := parseAlertQuery(r, 1440, 20, 2000)
		if err != nil {
			writeError(w, &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		res, err := q.Query(ctx, buildAlertFlux(bucket, p))
		if err != nil {
			w.Header().Set("X-Error", "influx-query-error")
			writeJSON(w, http.StatusOK, []AlertRecord{})
			return
		}
		defer res.Close()

		out := make([]AlertRecord, 0, p.Limit)
		for res.Next() {
			rec := res.Record()
			var value float64
			switch v := rec.Value().(type) {
			case float64:
				value = v
			case int64:
				value = float64(v)
			}
			ar := AlertRecord{Value: value, Time: rec.Time().UTC().Format(time.RFC3339)}
			if s, ok := rec.ValueByKey("sensor_id").(string); ok {
				ar.SensorID = s
			}
			if s, ok := rec.ValueByKey("level").(string); ok {
				ar.Level = s
			}
			out = append(out, ar)
		}
		if res.Err() != nil {
			w.Header().Set("X-Error", "influx-iter-error")
		}
		writeJSON(w, http.StatusOK, out)
	})
}
