package failure

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ParameterMap is the JSON object a simulator returns.
type ParameterMap map[string]any

// Clone returns a shallow copy.
func (p ParameterMap) Clone() ParameterMap {
	out := make(ParameterMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p ParameterMap) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FailureType selects how a single value is transformed over time.
// The zero value means no transform is configured.
type FailureType int

const (
	Sudden FailureType = iota + 1
	Gradual
	Intermittent
	Cyclic
	RandomWalk
	Drift
)

var failureTypeNames = map[FailureType]string{
	Sudden:       "sudden",
	Gradual:      "gradual",
	Intermittent: "intermittent",
	Cyclic:       "cyclic",
	RandomWalk:   "random_walk",
	Drift:        "drift",
}

// FailureTypes lists every supported mode in declaration order.
func FailureTypes() []FailureType {
	return []FailureType{Sudden, Gradual, Intermittent, Cyclic, RandomWalk, Drift}
}

// ParseFailureType maps a wire name to a FailureType.
func ParseFailureType(s string) (FailureType, error) {
	for t, name := range failureTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, invalid("", "failure_type", fmt.Sprintf("unknown value %q", s))
}

func (t FailureType) String() string {
	if name, ok := failureTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FailureType(%d)", int(t))
}

func (t FailureType) valid() bool {
	_, ok := failureTypeNames[t]
	return ok
}

func (t FailureType) MarshalJSON() ([]byte, error) {
	if !t.valid() {
		return nil, invalid("", "failure_type", t.String())
	}
	return json.Marshal(t.String())
}

func (t *FailureType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return invalid("", "failure_type", "must be a string")
	}
	parsed, err := ParseFailureType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NoiseType selects the noise distribution. Gaussian is the zero value and
// the fallback for unknown names.
type NoiseType int

const (
	GaussianNoise NoiseType = iota
	UniformNoise
	ExponentialNoise
	PoissonNoise
)

var noiseTypeNames = map[NoiseType]string{
	GaussianNoise:    "gaussian",
	UniformNoise:     "uniform",
	ExponentialNoise: "exponential",
	PoissonNoise:     "poisson",
}

// NoiseTypes lists every supported noise kind.
func NoiseTypes() []NoiseType {
	return []NoiseType{GaussianNoise, UniformNoise, ExponentialNoise, PoissonNoise}
}

// ParseNoiseType never fails: unknown names fall back to gaussian.
func ParseNoiseType(s string) NoiseType {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range noiseTypeNames {
		if name == s {
			return t
		}
	}
	return GaussianNoise
}

func (t NoiseType) String() string {
	if name, ok := noiseTypeNames[t]; ok {
		return name
	}
	return noiseTypeNames[GaussianNoise]
}

func (t NoiseType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *NoiseType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = GaussianNoise
		return nil
	}
	*t = ParseNoiseType(s)
	return nil
}

// DefaultNoiseIntensity applies when NoiseSpec.Intensity is absent.
const DefaultNoiseIntensity = 0.1

// NoiseSpec configures the noise stage.
type NoiseSpec struct {
	Type      NoiseType `json:"type"`
	Intensity *float64  `json:"intensity,omitempty"`
}

func (n NoiseSpec) intensity() float64 {
	if n.Intensity == nil {
		return DefaultNoiseIntensity
	}
	return *n.Intensity
}

// ClampSpec bounds a value. Absent bounds are open.
type ClampSpec struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ParamFailureSpec configures the pipeline for one parameter.
type ParamFailureSpec struct {
	FailureType        FailureType `json:"failure_type,omitempty"`
	FailureValue       any         `json:"failure_value,omitempty"`
	DurationSeconds    *float64    `json:"duration_seconds,omitempty"`
	FailureProbability *float64    `json:"failure_probability,omitempty"`
	PeriodSeconds      *float64    `json:"period_seconds,omitempty"`
	Amplitude          *float64    `json:"amplitude,omitempty"`
	StepSize           *float64    `json:"step_size,omitempty"`
	DriftRate          *float64    `json:"drift_rate,omitempty"`
	Noise              *NoiseSpec  `json:"noise,omitempty"`
	Clamp              *ClampSpec  `json:"clamp,omitempty"`
}

// AdvancedConfig holds the scenario gate and the per-parameter specs.
type AdvancedConfig struct {
	Probability *float64                    `json:"probability,omitempty"`
	Parameters  map[string]ParamFailureSpec `json:"parameters,omitempty"`
}

// ScenarioConfig is what the engine applies on top of a ParameterMap.
type ScenarioConfig struct {
	FailureParameters ParameterMap    `json:"failure_parameters,omitempty"`
	AdvancedConfig    *AdvancedConfig `json:"advanced_config,omitempty"`
}

// Validate reports malformed specs as ErrInvalidConfiguration.
func (c *AdvancedConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.Probability != nil && !inUnit(*c.Probability) {
		return invalid("", "probability", "must be within [0, 1]")
	}
	for name, spec := range c.Parameters {
		if err := spec.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (s ParamFailureSpec) validate(name string) error {
	if s.FailureType != 0 && !s.FailureType.valid() {
		return invalid(name, "failure_type", s.FailureType.String())
	}
	if s.DurationSeconds != nil && !(*s.DurationSeconds > 0) {
		return invalid(name, "duration_seconds", "must be positive")
	}
	if s.PeriodSeconds != nil && !(*s.PeriodSeconds > 0) {
		return invalid(name, "period_seconds", "must be positive")
	}
	if s.FailureProbability != nil && !inUnit(*s.FailureProbability) {
		return invalid(name, "failure_probability", "must be within [0, 1]")
	}
	if s.FailureType == Gradual && s.FailureValue != nil {
		if _, ok := ToFloat(s.FailureValue); !ok {
			return invalid(name, "failure_value", "gradual requires a numeric target")
		}
	}
	if s.Noise != nil && s.Noise.Intensity != nil && *s.Noise.Intensity < 0 {
		return invalid(name, "noise.intensity", "must not be negative")
	}
	if s.Clamp != nil && s.Clamp.Min != nil && s.Clamp.Max != nil && *s.Clamp.Min > *s.Clamp.Max {
		return invalid(name, "clamp", "min greater than max")
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// ToFloat reports whether v is a JSON-style number. Booleans are not numbers.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// DecodeAdvancedConfig parses and validates an advanced config. Empty input
// and JSON null yield nil. Every decoding failure wraps
// ErrInvalidConfiguration.
func DecodeAdvancedConfig(raw []byte) (*AdvancedConfig, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var cfg AdvancedConfig
	if err := json.Unmarshal([]byte(trimmed), &cfg); err != nil {
		if errors.Is(err, ErrInvalidConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
