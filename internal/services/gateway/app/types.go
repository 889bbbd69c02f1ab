package app

import (
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/alert"
)

// SensorAverage is one row of the persistence /averages/latest response.
type SensorAverage struct {
	FieldID   string  `json:"field_id"`
	SensorID  string  `json:"sensor_id"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
	Rejected  int     `json:"rejected"`
	Timestamp string  `json:"timestamp"`
}

// SensorView joins a sensor's latest average with its most recent alert level.
type SensorView struct {
	SensorAverage
	LastLevel string `json:"last_level,omitempty"`
	LastAlert string `json:"last_alert,omitempty"` // RFC3339
}

type DashboardData struct {
	Sensors []SensorView             `json:"sensors"`
	Alerts  []alert.AlertRecord      `json:"alerts"`
	Levels  map[model.AlertLevel]int `json:"levels"`
	Stats   map[string]float64       `json:"stats"`
	Sources map[string]string        `json:"sources"` // breaker state per upstream
}
