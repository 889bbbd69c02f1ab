package entities

import "fmt"

// AlertLevel is the ordinal outcome of classifying a reading.
type AlertLevel string

const (
	LevelNormal   AlertLevel = "normal"
	LevelWarning  AlertLevel = "warning"
	LevelCritical AlertLevel = "critical"
)

// Levels lists every level in ascending severity.
var Levels = []AlertLevel{LevelNormal, LevelWarning, LevelCritical}

// Rank is 0 for normal, 1 for warning, 2 for critical and -1 for anything else.
func (l AlertLevel) Rank() int {
	switch l {
	case LevelNormal:
		return 0
	case LevelWarning:
		return 1
	case LevelCritical:
		return 2
	default:
		return -1
	}
}

func (l AlertLevel) String() string { return string(l) }

func ParseAlertLevel(s string) (AlertLevel, error) {
	l := AlertLevel(s)
	if l.Rank() < 0 {
		return "", fmt.Errorf("unknown alert level %q", s)
	}
	return l, nil
}
