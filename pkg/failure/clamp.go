package failure

import "math"

// Clamp bounds a numeric value to [Min, Max]; absent bounds are infinite.
func Clamp(value any, spec ClampSpec) any {
	v, ok := ToFloat(value)
	if !ok {
		return value
	}
	lo := valueOr(spec.Min, math.Inf(-1))
	hi := valueOr(spec.Max, math.Inf(1))
	return math.Min(math.Max(v, lo), hi)
}
