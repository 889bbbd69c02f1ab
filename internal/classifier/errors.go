package classifier

import (
	"errors"
	"fmt"
)

// BoundKind says which side of the envelope a reading fell off.
type BoundKind int

const (
	BelowMinimum BoundKind = iota + 1
	AboveMaximum
)

func (k BoundKind) String() string {
	switch k {
	case BelowMinimum:
		return "below_minimum"
	case AboveMaximum:
		return "above_maximum"
	default:
		return "unknown"
	}
}

var (
	ErrOutOfRange   = errors.New("reading out of range")
	ErrBelowMinimum = fmt.Errorf("%w: below minimum", ErrOutOfRange)
	ErrAboveMaximum = fmt.Errorf("%w: above maximum", ErrOutOfRange)
)

// OutOfRangeError is the only failure Classify returns. It keeps the offending
// value and the violated bound; the text is built only when Error is called.
type OutOfRangeError struct {
	Kind  BoundKind
	Value float64
	Bound float64
}

func (e *OutOfRangeError) Error() string {
	switch e.Kind {
	case BelowMinimum:
		return fmt.Sprintf("value %g below minimum %g", e.Value, e.Bound)
	case AboveMaximum:
		return fmt.Sprintf("value %g above maximum %g", e.Value, e.Bound)
	default:
		return fmt.Sprintf("value %g out of range (bound %g)", e.Value, e.Bound)
	}
}

// Is lets errors.Is match ErrOutOfRange for any kind and the kind sentinels exactly.
func (e *OutOfRangeError) Is(target error) bool {
	switch target {
	case ErrOutOfRange:
		return true
	case ErrBelowMinimum:
		return e.Kind == BelowMinimum
	case ErrAboveMaximum:
		return e.Kind == AboveMaximum
	}
	return false
}

// AsOutOfRange unwraps err into an *OutOfRangeError.
func AsOutOfRange(err error) (*OutOfRangeError, bool) {
	var oor *OutOfRangeError
	if errors.As(err, &oor) {
		return oor, true
	}
	return nil, false
}
