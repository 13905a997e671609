// Package pattern synthesises failure-shaped time series for previews and
// analytics. It does not depend on the scenario engine.
package pattern

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

// MaxSamples bounds duration*rate for a single series.
const MaxSamples = 1_000_000

var ErrInvalidInput = errors.New("pattern: invalid input")

// Kind is a waveform shape. Unknown names map to Constant.
type Kind int

const (
	Constant Kind = iota
	Step
	Ramp
	Sine
	Noise
	Spike
	Degradation
)

var kindNames = map[Kind]string{
	Constant:    "constant",
	Step:        "step",
	Ramp:        "ramp",
	Sine:        "sine",
	Noise:       "noise",
	Spike:       "spike",
	Degradation: "degradation",
}

// Kinds lists the named shapes, excluding the constant fallback.
func Kinds() []Kind {
	return []Kind{Step, Ramp, Sine, Noise, Spike, Degradation}
}

func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return Constant
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Constant]
}

const (
	sinePeriodSeconds = 10.0
	sineDepth         = 0.5
	noiseFraction     = 0.1
	spikeFraction     = 0.05
	spikeMultiplier   = 5.0
	degradationRate   = 0.02
)

// Series is a sampled waveform. Time and Values have the same length.
type Series struct {
	Time   []float64 `json:"time"`
	Values []float64 `json:"values"`
}

func (s Series) Len() int { return len(s.Values) }

// Generate samples kind over [0, durationSeconds] at sampleRate samples per
// second, endpoints included. rng is only consulted by Noise and Spike.
func Generate(base float64, kind Kind, durationSeconds, sampleRate int, rng randsrc.Generator) (Series, error) {
	if durationSeconds <= 0 || sampleRate <= 0 {
		return Series{}, fmt.Errorf("%w: duration and sample rate must be positive", ErrInvalidInput)
	}
	if durationSeconds > MaxSamples/sampleRate {
		return Series{}, fmt.Errorf("%w: %ds at %d/s exceeds %d samples", ErrInvalidInput, durationSeconds, sampleRate, MaxSamples)
	}
	n := durationSeconds * sampleRate

	duration := float64(durationSeconds)
	times := Linspace(0, duration, n)
	values := make([]float64, n)

	switch kind {
	case Step:
		for i, t := range times {
			if t < duration/2 {
				values[i] = base
			} else {
				values[i] = base * 2
			}
		}
	case Ramp:
		for i, t := range times {
			values[i] = base + base*t/duration
		}
	case Sine:
		for i, t := range times {
			values[i] = base * (1 + sineDepth*math.Sin(2*math.Pi*t/sinePeriodSeconds))
		}
	case Noise:
		for i := range values {
			values[i] = base + rng.Gaussian(0, math.Abs(base)*noiseFraction)
		}
	case Spike:
		for i := range values {
			values[i] = base
		}
		for _, idx := range rng.Sample(n, int(float64(n)*spikeFraction)) {
			values[idx] = base * spikeMultiplier
		}
	case Degradation:
		for i, t := range times {
			values[i] = base * math.Exp(-degradationRate*t)
		}
	default:
		for i := range values {
			values[i] = base
		}
	}

	return Series{Time: times, Values: values}, nil
}

// Linspace returns n evenly spaced points over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
