package analytics

import (
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/pattern"
)

// DemoSeed makes Demo reproducible.
const DemoSeed = 42

// DemoCase is one canned scenario run by Demo.
type DemoCase struct {
	Original failure.ParameterMap `json:"original"`
	Result   failure.ParameterMap `json:"result"`
}

// DemoResult is what Demo returns.
type DemoResult struct {
	Tests        map[string]DemoCase `json:"tests"`
	PatternType  string              `json:"pattern_type"`
	PatternHead  []float64           `json:"pattern_sample"`
	Capabilities []string            `json:"capabilities"`
}

var demoCapabilities = []string{
	"sudden, gradual, intermittent, cyclic, random_walk and drift failures",
	"gaussian, uniform, exponential and poisson noise",
	"range clamping",
	"probabilistic scenario gates",
	"pattern generation",
	"threshold crossing prediction",
}

// Demo exercises the engine with a fixed seed and a few canned scenarios.
// now is the engine's start time and the instant every case is applied at.
func Demo(now time.Time) (DemoResult, error) {
	engine := failure.NewEngine(failure.WithSeed(DemoSeed), failure.WithStartTime(now))

	cases := []struct {
		name     string
		original failure.ParameterMap
		cfg      failure.ScenarioConfig
	}{
		{
			name:     "sudden",
			original: failure.ParameterMap{"temperature": 25.0, "pressure": 1013.25},
			cfg: failure.ScenarioConfig{
				FailureParameters: failure.ParameterMap{"temperature": 999.0},
				AdvancedConfig: &failure.AdvancedConfig{Parameters: map[string]failure.ParamFailureSpec{
					"temperature": {FailureType: failure.Sudden, FailureValue: 999.0},
				}},
			},
		},
		{
			name:     "gradual_with_noise",
			original: failure.ParameterMap{"pressure": 100.0},
			cfg: failure.ScenarioConfig{
				AdvancedConfig: &failure.AdvancedConfig{Parameters: map[string]failure.ParamFailureSpec{
					"pressure": {
						FailureType:     failure.Gradual,
						FailureValue:    200.0,
						DurationSeconds: float64Ptr(60),
						Noise:           &failure.NoiseSpec{Type: failure.GaussianNoise, Intensity: float64Ptr(0.05)},
					},
				}},
			},
		},
		{
			name:     "probabilistic",
			original: failure.ParameterMap{"flow_rate": 50.0},
			cfg: failure.ScenarioConfig{
				FailureParameters: failure.ParameterMap{"flow_rate": 0.0},
				AdvancedConfig: &failure.AdvancedConfig{
					Probability: float64Ptr(0.5),
					Parameters: map[string]failure.ParamFailureSpec{
						"flow_rate": {FailureType: failure.Intermittent, FailureValue: 0.0, FailureProbability: float64Ptr(0.3)},
					},
				},
			},
		},
	}

	out := DemoResult{Tests: make(map[string]DemoCase, len(cases)), Capabilities: demoCapabilities}
	for _, c := range cases {
		res, err := engine.Apply(c.original, c.cfg, now)
		if err != nil {
			return DemoResult{}, err
		}
		out.Tests[c.name] = DemoCase{Original: c.original, Result: res}
	}

	series, err := pattern.Generate(100, pattern.Sine, 10, 5, engine.Random())
	if err != nil {
		return DemoResult{}, err
	}
	out.PatternType = pattern.Sine.String()
	out.PatternHead = series.Values[:5]
	return out, nil
}

func float64Ptr(v float64) *float64 { return &v }
