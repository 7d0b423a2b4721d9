package catalog

import (
	"fmt"
	"math"

	"github.com/matzehuels/geonodes/pkg/host"
)

// Socket types.
const (
	SocketFloat    = "FLOAT"
	SocketInt      = "INT"
	SocketBoolean  = "BOOLEAN"
	SocketString   = "STRING"
	SocketVector   = "VECTOR"
	SocketRotation = "ROTATION"
	SocketRGBA     = "RGBA"
	SocketGeometry = "GEOMETRY"
)

var socketComponents = map[string]int{
	SocketFloat:    0,
	SocketInt:      0,
	SocketBoolean:  0,
	SocketString:   0,
	SocketVector:   3,
	SocketRotation: 3,
	SocketRGBA:     4,
	SocketGeometry: 0,
}

// KnownSocketType reports whether t is one of the socket type constants.
func KnownSocketType(t string) bool {
	_, ok := socketComponents[t]
	return ok
}

// Components returns the component count of a vector-valued socket type, or 0.
func Components(t string) int {
	return socketComponents[t]
}

// HasDefault reports whether sockets of type t carry a default value.
func HasDefault(t string) bool {
	return KnownSocketType(t) && t != SocketGeometry
}

// Zero returns the zero default value of a socket type, or nil when the type
// carries no value.
func Zero(t string) any {
	switch t {
	case SocketFloat:
		return 0.0
	case SocketInt:
		return 0
	case SocketBoolean:
		return false
	case SocketString:
		return ""
	}
	if n := Components(t); n > 0 {
		return make([]float64, n)
	}
	return nil
}

// Coerce converts v to the canonical representation of socket type t:
// float64, int, bool, string, or []float64 of the type's component count.
// Values that cannot be converted yield an error wrapping host.ErrTypeMismatch.
func Coerce(t string, v any) (any, error) {
	switch t {
	case SocketFloat:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case SocketInt:
		if f, ok := toFloat(v); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int(f), nil
		}
	case SocketBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		default:
			if f, ok := toFloat(v); ok && (f == 0 || f == 1) {
				return f == 1, nil
			}
		}
	case SocketString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case SocketVector, SocketRotation, SocketRGBA:
		if vec, ok := toVector(v); ok && len(vec) == Components(t) {
			return vec, nil
		}
	case SocketGeometry:
		return nil, fmt.Errorf("%w: %s sockets carry no value", host.ErrNoDefault, t)
	}
	return nil, fmt.Errorf("%w: cannot use %T as %s", host.ErrTypeMismatch, v, t)
}

// ToFloat converts a numeric value (or bool) to float64.
func ToFloat(v any) (float64, bool) {
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toVector(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...), true
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// SameKind reports whether v can replace a property whose default is def.
// Numbers match numbers, strings match strings, booleans match booleans and
// sequences match sequences. A nil default accepts anything.
func SameKind(def, v any) bool {
	if def == nil {
		return true
	}
	return kind(def) == kind(v)
}

func kind(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case string:
		return "string"
	case []any, []float64:
		return "sequence"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
