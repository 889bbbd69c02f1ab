// Package classifier validates sensor readings against their configured
// envelope and buckets them into alert levels.
package classifier

import (
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

// Cut points on the normalized [0, 1] scale.
const (
	WarningThreshold  = 0.3
	CriticalThreshold = 0.7
)

// Normalize returns the position of value inside cfg rescaled to [0, 1].
// Bounds are not checked and a degenerate cfg yields a non-finite result.
func Normalize(value float64, cfg model.SensorConfig) float64 {
	return (value - cfg.MinValue) / cfg.Range()
}

// LevelFor buckets an already normalized value.
// Anything not strictly below CriticalThreshold, NaN included, is critical.
func LevelFor(normalized float64) model.AlertLevel {
	switch {
	case normalized < WarningThreshold:
		return model.LevelNormal
	case normalized < CriticalThreshold:
		return model.LevelWarning
	default:
		return model.LevelCritical
	}
}

// Classify checks value against cfg and returns its alert level, or an
// *OutOfRangeError naming the violated bound.
//
// cfg.IsValid is not consulted: an empty or inverted envelope is classified as is.
func Classify(value float64, cfg model.SensorConfig) (model.AlertLevel, error) {
	if value < cfg.MinValue {
		return "", &OutOfRangeError{Kind: BelowMinimum, Value: value, Bound: cfg.MinValue}
	}
	if value > cfg.MaxValue {
		return "", &OutOfRangeError{Kind: AboveMaximum, Value: value, Bound: cfg.MaxValue}
	}
	return LevelFor(Normalize(value, cfg)), nil
}
