package failure

import (
	"math"

	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

// AddNoise perturbs a numeric value. The spread scales with |value|, so a zero
// value only changes under exponential noise when the scale is positive.
// Poisson noise replaces a positive value with a draw centred on it.
func AddNoise(value any, spec NoiseSpec, rng randsrc.Generator) any {
	v, ok := ToFloat(value)
	if !ok {
		return value
	}

	scale := spec.intensity() * math.Abs(v)

	switch spec.Type {
	case UniformNoise:
		return v + rng.Uniform(-scale, scale)
	case ExponentialNoise:
		return v + rng.Exponential(scale)
	case PoissonNoise:
		if v > 0 {
			return rng.Poisson(v)
		}
		return v
	default:
		return v + rng.Gaussian(0, scale)
	}
}
