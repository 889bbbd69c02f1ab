package messages

import (
	"time"
)

// Reading is a raw value published by a sensor on sensor/data/{field}/{sensor}.
type Reading struct {
	FieldID   string    `json:"field_id" msgpack:"field_id"`
	SensorID  string    `json:"sensor_id" msgpack:"sensor_id"`
	Value     float64   `json:"value" msgpack:"value"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
}
