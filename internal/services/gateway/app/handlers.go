package app

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sort"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/alert"
)

func (g *Gateway) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	var (
		averages []SensorAverage
		alerts   []alert.AlertRecord
	)
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		if err := g.persistence.GetJSON(ctx, &averages); err != nil {
			g.cfg.Logger.Printf("gateway: %v", err)
		}
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		if err := g.alerts.GetJSON(ctx, &alerts); err != nil {
			g.cfg.Logger.Printf("gateway: %v", err)
		}
	}()
	<-done
	<-done

	writeJSON(w, buildDashboard(averages, alerts, map[string]string{
		"persistence": g.persistence.State(),
		"alerts":      g.alerts.State(),
	}))
}

func buildDashboard(averages []SensorAverage, alerts []alert.AlertRecord, sources map[string]string) DashboardData {
	data := DashboardData{
		Sensors: make([]SensorView, 0, len(averages)),
		Alerts:  alerts,
		Levels:  map[model.AlertLevel]int{},
		Stats:   map[string]float64{},
		Sources: sources,
	}
	if data.Alerts == nil {
		data.Alerts = []alert.AlertRecord{}
	}

	// alerts arrive newest first; keep the first seen per sensor
	last := make(map[string]alert.AlertRecord, len(alerts))
	for _, a := range alerts {
		if lvl, err := model.ParseAlertLevel(a.Level); err == nil {
			data.Levels[lvl]++
		}
		if _, ok := last[a.SensorID]; !ok {
			last[a.SensorID] = a
		}
	}

	for _, s := range averages {
		v := SensorView{SensorAverage: s}
		if a, ok := last[s.SensorID]; ok {
			v.LastLevel = a.Level
			v.LastAlert = a.Time
		}
		data.Sensors = append(data.Sensors, v)
	}
	sort.Slice(data.Sensors, func(i, j int) bool { return data.Sensors[i].SensorID < data.Sensors[j].SensorID })

	if n := len(averages); n > 0 {
		sum, minv, maxv := 0.0, math.MaxFloat64, -math.MaxFloat64
		for _, s := range averages {
			sum += s.Average
			minv = math.Min(minv, s.Average)
			maxv = math.Max(maxv, s.Average)
		}
		data.Stats["mean"] = sum / float64(n)
		data.Stats["min"] = minv
		data.Stats["max"] = maxv
	}
	return data
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
