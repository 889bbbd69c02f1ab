package alert

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

const alertMeasurement = "sensor_alert"

// AlertToPoint turns a classified reading into a sensor_alert point.
func AlertToPoint(evt model.AlertEvent) *write.Point {
	tags := map[string]string{
		"sensor_id": evt.SensorID,
		"level":     string(evt.Level),
	}
	if evt.FieldID != "" {
		tags["field_id"] = evt.FieldID
	}
	if evt.SensorName != "" {
		tags["sensor_name"] = evt.SensorName
	}

	fields := map[string]interface{}{
		"value":      evt.Value,
		"normalized": evt.Normalized,
		"rank":       int64(evt.Level.Rank()),
	}

	return influxdb2.NewPoint(alertMeasurement, tags, fields, evt.Timestamp)
}
