package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Caster converts a decoded JSON value into T.
type Caster[T any] func(raw any) (T, error)

var (
	errUnsupportedType = errors.New("unsupported value type")
	errNotFinite       = errors.New("value is not a finite number")
)

// SafeCast coerces raw with cast. A missing value (nil) yields def. A value
// that fails to cast also yields def, and ok is false so the caller can
// report it. SafeCast never fails the caller.
func SafeCast[T any](raw any, cast Caster[T], def *T) (v *T, ok bool) {
	if raw == nil {
		return def, true
	}
	out, err := cast(raw)
	if err != nil {
		return def, false
	}
	return &out, true
}

// ToFloat accepts JSON numbers and numeric strings.
func ToFloat(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %T", errUnsupportedType, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// ToText accepts strings as-is and renders numbers without trailing zeros.
func ToText(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", errUnsupportedType, raw)
	}
}

func ptr[T any](v T) *T {
	return &v
}
