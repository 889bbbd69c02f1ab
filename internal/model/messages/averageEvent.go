package messages

import "time"

// AverageEvent carries the filtered average of one aggregation window.
type AverageEvent struct {
	FieldID   string    `json:"field_id"`
	SensorID  string    `json:"sensor_id"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`    // accepted readings
	Rejected  int       `json:"rejected"` // outliers dropped in the window
	Timestamp time.Time `json:"timestamp"`
}
