package analytics

import (
	"fmt"
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/pattern"
	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

// PatternResult is a generated waveform with its summary.
type PatternResult struct {
	PatternType     string    `json:"pattern_type"`
	BaseValue       float64   `json:"base_value"`
	DurationSeconds int       `json:"duration_seconds"`
	SampleRate      int       `json:"sample_rate"`
	Time            []float64 `json:"time"`
	Values          []float64 `json:"values"`
	Statistics      Summary   `json:"statistics"`
}

// PatternReport generates a waveform and summarises it. Unknown pattern names
// produce the constant shape.
func PatternReport(base float64, patternType string, durationSeconds, sampleRate int, rng randsrc.Generator) (PatternResult, error) {
	kind := pattern.ParseKind(patternType)
	series, err := pattern.Generate(base, kind, durationSeconds, sampleRate, rng)
	if err != nil {
		return PatternResult{}, err
	}
	return PatternResult{
		PatternType:     kind.String(),
		BaseValue:       base,
		DurationSeconds: durationSeconds,
		SampleRate:      sampleRate,
		Time:            series.Time,
		Values:          series.Values,
		Statistics:      Analyze(series.Values).Summary(),
	}, nil
}

// Simulation is the result of sweeping an advanced config over time.
type Simulation struct {
	OriginalParameters failure.ParameterMap   `json:"original_parameters"`
	AdvancedConfig     failure.AdvancedConfig `json:"advanced_config"`
	DurationSeconds    int                    `json:"duration_seconds"`
	SampleRate         int                    `json:"sample_rate"`
	Timestamps         []string               `json:"timestamps"`
	TimeSeries         map[string][]float64   `json:"time_series"`
	Statistics         map[string]Statistics  `json:"statistics"`
}

// SimulateAdvanced runs a fresh engine started at start over
// durationSeconds*sampleRate instants spaced 1/sampleRate apart.
//
// Only parameters that are numeric in params and stay numeric in every
// sample are reported in TimeSeries and Statistics.
func SimulateAdvanced(params failure.ParameterMap, adv failure.AdvancedConfig, durationSeconds, sampleRate int, start time.Time, opts ...failure.Option) (Simulation, error) {
	if durationSeconds <= 0 || sampleRate <= 0 {
		return Simulation{}, fmt.Errorf("%w: duration_seconds and sample_rate must be positive", ErrInvalidInput)
	}
	if durationSeconds > pattern.MaxSamples/sampleRate {
		return Simulation{}, fmt.Errorf("%w: %ds at %d/s exceeds the limit of %d samples", ErrInvalidInput, durationSeconds, sampleRate, pattern.MaxSamples)
	}
	n := durationSeconds * sampleRate
	if err := adv.Validate(); err != nil {
		return Simulation{}, err
	}

	engine := failure.NewEngine(append(opts, failure.WithStartTime(start))...)
	cfg := failure.ScenarioConfig{AdvancedConfig: &adv}

	series := map[string][]float64{}
	for _, key := range params.Keys() {
		if _, ok := failure.ToFloat(params[key]); ok {
			series[key] = make([]float64, 0, n)
		}
	}

	timestamps := make([]string, 0, n)
	for i := 0; i < n; i++ {
		now := start.Add(time.Duration(float64(i) * float64(time.Second) / float64(sampleRate)))
		result, err := engine.Apply(params, cfg, now)
		if err != nil {
			return Simulation{}, err
		}
		timestamps = append(timestamps, now.Format(time.RFC3339Nano))

		for key, values := range series {
			v, ok := failure.ToFloat(result[key])
			if !ok {
				delete(series, key)
				continue
			}
			series[key] = append(values, v)
		}
	}

	stats := make(map[string]Statistics, len(series))
	for key, values := range series {
		stats[key] = Analyze(values)
	}

	return Simulation{
		OriginalParameters: params,
		AdvancedConfig:     adv,
		DurationSeconds:    durationSeconds,
		SampleRate:         sampleRate,
		Timestamps:         timestamps,
		TimeSeries:         series,
		Statistics:         stats,
	}, nil
}
