package rabbitmq

import "strings"

const (
	TopicSensorData    = "sensor/data/{field}/{sensor}"
	TopicSensorAverage = "sensor/average/{field}/{sensor}"
	TopicAlert         = "event/alert/{field}/{sensor}"
)

// FormatTopic fills {field} and {sensor} in tmpl.
func FormatTopic(tmpl, fieldID, sensorID string) string {
	return strings.NewReplacer("{field}", fieldID, "{sensor}", sensorID).Replace(tmpl)
}

// TopicIDs extracts field and sensor ids from "prefix/{field}/{sensor}".
func TopicIDs(topic, prefix string) (fieldID, sensorID string, ok bool) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(topic, prefix), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// qosFor: alerts and averages are delivered at least once, raw data at most once.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "event/alert") ||
		strings.HasPrefix(t, "sensor/average") {
		return 1
	}
	return 0
}
