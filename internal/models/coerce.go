package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// ErrInvalidValue marks a payload or query value that cannot be converted to
// the type of its field.
var ErrInvalidValue = errors.New("invalid field value")

// Truthy reports whether v would count as present in a loosely typed payload:
// nil, "", false, 0 and NaN are not.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

func toString(v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %T is not a string", ErrInvalidValue, v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s, nil
}

func toBool(v any) (bool, error) {
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return b, nil
}

func toTime(v any) (time.Time, error) {
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return t.UTC(), nil
}
