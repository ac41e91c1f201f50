package tracemodel

import (
	"encoding/json"
	"math"
)

// Attributes is a string-keyed map of scalar attribute values.
//
// Supported value types are string, bool, the signed and unsigned integer
// types, float32/float64 and json.Number. Values of any other type are kept
// but never match a typed lookup.
type Attributes map[string]any

// Get returns the raw value stored under key.
func (a Attributes) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a[key]
	return v, ok
}

// StringValue returns v as a string if it holds one.
func StringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// BoolValue returns v as a bool if it holds one.
func BoolValue(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// IntValue returns v as an int64 if it holds an integer type that fits
// without loss. Floats are never reported as integers.
func IntValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintValue(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintValue(n)
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func uintValue(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

// NumericValue returns v as a float64 if it holds a numeric type.
// NaN is reported as not numeric.
func NumericValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
