package entities

// SensorConfig is the valid operating envelope for one sensor.
// A config with MaxValue <= MinValue can be built; classifying against it
// gives degenerate results, so callers that care check IsValid first.
type SensorConfig struct {
	Name     string  `json:"name" yaml:"name" msgpack:"name"`
	MinValue float64 `json:"min_value" yaml:"min_value" msgpack:"min_value"`
	MaxValue float64 `json:"max_value" yaml:"max_value" msgpack:"max_value"`
}

func NewSensorConfig(name string, min, max float64) SensorConfig {
	return SensorConfig{
		Name:     name,
		MinValue: min,
		MaxValue: max,
	}
}

// IsValid reports whether the envelope is non-empty. Name and finiteness are not checked.
func (c SensorConfig) IsValid() bool {
	return c.MaxValue > c.MinValue
}

// Range is MaxValue - MinValue.
func (c SensorConfig) Range() float64 {
	return c.MaxValue - c.MinValue
}

// Sensor represents a single device in the field.
type Sensor struct {
	FieldID string       `json:"field_id" yaml:"field_id"`
	ID      string       `json:"id" yaml:"id"` // unique sensor identifier
	Config  SensorConfig `json:"config" yaml:",inline"`
}
