package persistence

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

func NewHTTPMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	// GET /averages/latest?sensor_id=<id>
	mux.HandleFunc("/averages/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sensorID := r.URL.Query().Get("sensor_id")

		type outT struct {
			FieldID   string  `json:"field_id"`
			SensorID  string  `json:"sensor_id"`
			Average   float64 `json:"average"`
			Count     int     `json:"count"`
			Rejected  int     `json:"rejected"`
			Timestamp string  `json:"timestamp"`
		}
		list := svc.LatestCache()
		out := make([]outT, 0, len(list))
		for _, v := range list {
			if sensorID != "" && v.SensorID != sensorID {
				continue
			}
			out = append(out, outT{
				FieldID: v.FieldID, SensorID: v.SensorID, Average: v.Average,
				Count: v.Count, Rejected: v.Rejected, Timestamp: v.Timestamp.UTC().Format(time.RFC3339),
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].FieldID != out[j].FieldID {
				return out[i].FieldID < out[j].FieldID
			}
			return out[i].SensorID < out[j].SensorID
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	return mux
}
