package query

import (
	"fmt"
	"math"
	"strconv"
)

// toNumber is the single named numeric conversion used by mutators that
// accept coercible inputs (Mod, Size, SetLimit, SetSkip). Numeric types
// convert directly; strings are parsed. Anything non-finite or
// non-numeric is an error.
func toNumber(v any) (float64, error) {
	var n float64
	switch val := v.(type) {
	case int:
		n = float64(val)
	case int8:
		n = float64(val)
	case int16:
		n = float64(val)
	case int32:
		n = float64(val)
	case int64:
		n = float64(val)
	case uint:
		n = float64(val)
	case uint8:
		n = float64(val)
	case uint16:
		n = float64(val)
	case uint32:
		n = float64(val)
	case uint64:
		n = float64(val)
	case float32:
		n = float64(val)
	case float64:
		n = val
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", val)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("number must be finite, got %v", n)
	}
	return n, nil
}

// isNumberOrString reports whether v is an acceptable range bound.
func isNumberOrString(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string:
		return true
	}
	return false
}

// copyFilter deep-copies a filter tree. Nested maps and slices are
// cloned; leaf values are copied by assignment.
func copyFilter(f map[string]any) map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyFilter(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return v
	}
}
