package model

import (
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model/entities"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model/messages"
)

// Aliases so services import a single package.

type (
	Reading      = messages.Reading
	AlertEvent   = messages.AlertEvent
	AverageEvent = messages.AverageEvent
	Sensor       = entities.Sensor
	SensorConfig = entities.SensorConfig
	AlertLevel   = entities.AlertLevel
)

const (
	LevelNormal   = entities.LevelNormal
	LevelWarning  = entities.LevelWarning
	LevelCritical = entities.LevelCritical
)

var (
	NewSensorConfig = entities.NewSensorConfig
	ParseAlertLevel = entities.ParseAlertLevel
)
