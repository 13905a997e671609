package failure

// Descriptor documents a failure or noise type for clients.
type Descriptor struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

var failureCatalog = map[FailureType]Descriptor{
	Sudden:       {Name: "Sudden failure", Description: "Switches to the failure value immediately", Parameters: []string{"failure_value"}},
	Gradual:      {Name: "Gradual failure", Description: "Moves linearly towards the failure value over the duration", Parameters: []string{"failure_value", "duration_seconds"}},
	Intermittent: {Name: "Intermittent failure", Description: "Returns the failure value with a fixed probability on each call", Parameters: []string{"failure_value", "failure_probability"}},
	Cyclic:       {Name: "Cyclic failure", Description: "Oscillates around the value following a sine wave", Parameters: []string{"period_seconds", "amplitude"}},
	RandomWalk:   {Name: "Random walk", Description: "Adds a gaussian step scaled by step_size", Parameters: []string{"step_size"}},
	Drift:        {Name: "Drift", Description: "Scales the value away from its origin at a constant rate per second", Parameters: []string{"drift_rate"}},
}

var noiseCatalog = map[NoiseType]Descriptor{
	GaussianNoise:    {Name: "Gaussian noise", Description: "Normally distributed noise", Parameters: []string{"intensity"}},
	UniformNoise:     {Name: "Uniform noise", Description: "Noise spread evenly over a symmetric range", Parameters: []string{"intensity"}},
	ExponentialNoise: {Name: "Exponential noise", Description: "Exponentially distributed noise, always positive", Parameters: []string{"intensity"}},
	PoissonNoise:     {Name: "Poisson noise", Description: "Replaces the value with a Poisson count centred on it", Parameters: []string{}},
}

// FailureCatalog describes every failure type in declaration order.
func FailureCatalog() []Descriptor {
	out := make([]Descriptor, 0, len(failureCatalog))
	for _, t := range FailureTypes() {
		d := failureCatalog[t]
		d.Type = t.String()
		out = append(out, d)
	}
	return out
}

// NoiseCatalog describes every noise type in declaration order.
func NoiseCatalog() []Descriptor {
	out := make([]Descriptor, 0, len(noiseCatalog))
	for _, t := range NoiseTypes() {
		d := noiseCatalog[t]
		d.Type = t.String()
		out = append(out, d)
	}
	return out
}
