package messages

import (
	"time"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model/entities"
)

// AlertEvent is published by the alert service for every reading it classified.
type AlertEvent struct {
	EventID    string              `json:"event_id"`
	FieldID    string              `json:"field_id"`
	SensorID   string              `json:"sensor_id"`
	SensorName string              `json:"sensor_name"`
	Value      float64             `json:"value"`
	Normalized float64             `json:"normalized"`
	Level      entities.AlertLevel `json:"level"`
	Timestamp  time.Time           `json:"timestamp"`
}
