package failure

import (
	"math"

	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

// Mode defaults.
const (
	DefaultDurationSeconds    = 60.0
	DefaultFailureProbability = 0.3
	DefaultPeriodSeconds      = 60.0
	DefaultDriftRate          = 0.1

	failureMultiplier = 10.0
	amplitudeFraction = 0.5
	stepSizeFraction  = 0.1
)

// Transform applies spec.FailureType to value, given the seconds elapsed since
// the engine started. A zero FailureType returns value unchanged.
//
// Non-numeric values are left alone, except for sudden and intermittent,
// which replace them with the configured failure_value when there is one.
func Transform(value any, spec ParamFailureSpec, elapsed float64, rng randsrc.Generator) (any, error) {
	if spec.FailureType == 0 {
		return value, nil
	}
	if !spec.FailureType.valid() {
		return nil, invalid("", "failure_type", spec.FailureType.String())
	}

	v, numeric := ToFloat(value)
	if !numeric {
		switch spec.FailureType {
		case Sudden, Intermittent:
			if spec.FailureValue != nil {
				return spec.FailureValue, nil
			}
		}
		return value, nil
	}

	switch spec.FailureType {
	case Sudden:
		return failureTarget(spec, v), nil

	case Gradual:
		target, ok := ToFloat(failureTarget(spec, v))
		if !ok {
			return nil, invalid("", "failure_value", "gradual requires a numeric target")
		}
		duration := valueOr(spec.DurationSeconds, DefaultDurationSeconds)
		if duration <= 0 {
			return nil, invalid("", "duration_seconds", "must be positive")
		}
		progress := math.Min(math.Max(elapsed/duration, 0), 1)
		return v + (target-v)*progress, nil

	case Intermittent:
		p := valueOr(spec.FailureProbability, DefaultFailureProbability)
		if rng.UnitUniform() < p {
			return failureTarget(spec, v), nil
		}
		return v, nil

	case Cyclic:
		period := valueOr(spec.PeriodSeconds, DefaultPeriodSeconds)
		if period <= 0 {
			return nil, invalid("", "period_seconds", "must be positive")
		}
		amplitude := valueOr(spec.Amplitude, v*amplitudeFraction)
		return v + amplitude*math.Sin(2*math.Pi*elapsed/period), nil

	case RandomWalk:
		step := valueOr(spec.StepSize, v*stepSizeFraction)
		return v + rng.Gaussian(0, 1)*step, nil

	case Drift:
		rate := valueOr(spec.DriftRate, DefaultDriftRate)
		return v * (1 + rate*elapsed), nil
	}

	return v, nil
}

// failureTarget is failure_value when configured, otherwise ten times the value.
func failureTarget(spec ParamFailureSpec, v float64) any {
	if spec.FailureValue != nil {
		return spec.FailureValue
	}
	return v * failureMultiplier
}
