package failure

import (
	"fmt"
	"sort"
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

// Engine applies scenario configs to parameter maps.
//
// Time-based modes measure elapsed seconds from the engine's start time, so a
// single Engine must be reused across calls for gradual, cyclic and drift
// failures to progress. An Engine is safe for concurrent use when its random
// source and history sink are.
type Engine struct {
	start time.Time
	now   func() time.Time
	rng   randsrc.Generator
	sink  HistorySink
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed uses a fresh Source seeded with seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = randsrc.New(seed) }
}

// WithRandom injects the random source.
func WithRandom(g randsrc.Generator) Option {
	return func(e *Engine) { e.rng = g }
}

// WithHistory injects the sink that receives one record per perturbed parameter.
func WithHistory(s HistorySink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithStartTime pins the reference time. Defaults to the clock at construction.
func WithStartTime(t time.Time) Option {
	return func(e *Engine) { e.start = t }
}

// WithClock replaces time.Now for ApplyNow and the default start time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an Engine. Without options it seeds from the wall clock,
// starts now, and discards history.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = randsrc.NewFromTime()
	}
	if e.sink == nil {
		e.sink = nopSink{}
	}
	if e.start.IsZero() {
		e.start = e.now()
	}
	return e
}

func (e *Engine) StartTime() time.Time { return e.start }

// Elapsed returns the seconds between the start time and now. Negative values
// are allowed.
func (e *Engine) Elapsed(now time.Time) float64 {
	return now.Sub(e.start).Seconds()
}

// Random exposes the engine's source so callers can share the stream.
func (e *Engine) Random() randsrc.Generator { return e.rng }

// ApplyNow is Apply at the engine clock's current time.
func (e *Engine) ApplyNow(original ParameterMap, cfg ScenarioConfig) (ParameterMap, error) {
	return e.Apply(original, cfg, e.now())
}

// Apply overlays cfg.FailureParameters on a copy of original and, when an
// advanced config is present and its probability gate passes, runs each
// configured parameter through transform, noise and clamp in that order.
//
// Parameters missing from the map are skipped. On error nothing is returned
// and no history is recorded.
func (e *Engine) Apply(original ParameterMap, cfg ScenarioConfig, now time.Time) (ParameterMap, error) {
	result := original.Clone()
	for k, v := range cfg.FailureParameters {
		result[k] = v
	}

	adv := cfg.AdvancedConfig
	if adv == nil {
		return result, nil
	}
	if err := adv.Validate(); err != nil {
		return nil, err
	}
	if adv.Probability != nil && e.rng.UnitUniform() >= *adv.Probability {
		return result, nil
	}

	elapsed := e.Elapsed(now)
	records := make([]HistoryRecord, 0, len(adv.Parameters))

	// sorted so that seeded runs draw in a stable order
	names := make([]string, 0, len(adv.Parameters))
	for name := range adv.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		current, ok := result[name]
		if !ok {
			continue
		}
		spec := adv.Parameters[name]

		next, err := e.pipeline(current, spec, elapsed)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		result[name] = next

		rec := HistoryRecord{
			Timestamp: now,
			Elapsed:   elapsed,
			Parameter: name,
			Clamped:   spec.Clamp != nil,
			Original:  current,
			Result:    next,
		}
		if spec.FailureType != 0 {
			rec.FailureType = spec.FailureType.String()
		}
		if spec.Noise != nil {
			rec.Noise = spec.Noise.Type.String()
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		e.sink.Record(rec)
	}
	return result, nil
}

func (e *Engine) pipeline(value any, spec ParamFailureSpec, elapsed float64) (any, error) {
	out, err := Transform(value, spec, elapsed, e.rng)
	if err != nil {
		return nil, err
	}
	if spec.Noise != nil {
		out = AddNoise(out, *spec.Noise, e.rng)
	}
	if spec.Clamp != nil {
		out = Clamp(out, *spec.Clamp)
	}
	return out, nil
}
