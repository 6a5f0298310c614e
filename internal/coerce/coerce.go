// Package coerce turns the loosely typed values found in scraped payloads
// into strings and numbers without ever failing.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// String renders scalars as trimmed text. Integral floats print without a
// fraction so that JSON ids decoded as float64 keep their digits. Maps,
// slices and nil become "".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return strings.TrimSpace(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return String(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float returns a finite, non-negative float or 0.
func Float(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// Int returns a non-negative int or 0. Numeric values are truncated;
// strings must hold a plain integer.
func Int(v any) int {
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t > math.MaxInt64 || t < math.MinInt64 {
			return 0
		}
		n = int64(t)
	case float32:
		return Int(float64(t))
	case json.Number:
		if parsed, err := t.Int64(); err == nil {
			n = parsed
		} else if f, err := t.Float64(); err == nil {
			return Int(f)
		} else {
			return 0
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
