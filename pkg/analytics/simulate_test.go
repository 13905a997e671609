package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSimulateAdvanced_GradualSweep(t *testing.T) {
	duration := 10.0
	adv := failure.AdvancedConfig{Parameters: map[string]failure.ParamFailureSpec{
		"pressure": {FailureType: failure.Gradual, FailureValue: 200.0, DurationSeconds: &duration},
	}}
	params := failure.ParameterMap{"pressure": 100.0, "status": "ok"}

	sim, err := SimulateAdvanced(params, adv, 10, 2, start, failure.WithSeed(1))
	require.NoError(t, err)

	assert.Len(t, sim.Timestamps, 20)
	assert.Equal(t, start.Format(time.RFC3339Nano), sim.Timestamps[0])
	assert.Equal(t, start.Add(500*time.Millisecond).Format(time.RFC3339Nano), sim.Timestamps[1])

	require.Contains(t, sim.TimeSeries, "pressure")
	assert.NotContains(t, sim.TimeSeries, "status")
	values := sim.TimeSeries["pressure"]
	assert.Len(t, values, 20)
	assert.InDelta(t, 100, values[0], 1e-9)
	assert.InDelta(t, 195, values[19], 1e-9)
	assert.InDelta(t, 100, sim.Statistics["pressure"].Min, 1e-9)
}

func TestSimulateAdvanced_NonNumericResultIsDropped(t *testing.T) {
	adv := failure.AdvancedConfig{Parameters: map[string]failure.ParamFailureSpec{
		"level": {FailureType: failure.Sudden, FailureValue: "offline"},
	}}

	sim, err := SimulateAdvanced(failure.ParameterMap{"level": 3}, adv, 1, 4, start)
	require.NoError(t, err)

	assert.Empty(t, sim.TimeSeries)
	assert.Empty(t, sim.Statistics)
	assert.Len(t, sim.Timestamps, 4)
}

func TestSimulateAdvanced_Errors(t *testing.T) {
	_, err := SimulateAdvanced(failure.ParameterMap{"a": 1}, failure.AdvancedConfig{}, 0, 1, start)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := -1.0
	_, err = SimulateAdvanced(failure.ParameterMap{"a": 1}, failure.AdvancedConfig{Probability: &bad}, 1, 1, start)
	assert.ErrorIs(t, err, failure.ErrInvalidConfiguration)

	_, err = SimulateAdvanced(failure.ParameterMap{"a": 1}, failure.AdvancedConfig{}, 1<<62+1, 4, start)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSimulateAdvanced_TimestampsAtUnevenRate(t *testing.T) {
	sim, err := SimulateAdvanced(failure.ParameterMap{"a": 1.0}, failure.AdvancedConfig{}, 2, 3, start)
	require.NoError(t, err)

	require.Len(t, sim.Timestamps, 6)
	assert.Equal(t, start.Add(time.Second).Format(time.RFC3339Nano), sim.Timestamps[3])
	assert.Equal(t, start.Add(2*time.Second/3).Format(time.RFC3339Nano), sim.Timestamps[2])
}

func TestPatternReport(t *testing.T) {
	r, err := PatternReport(100, "step", 10, 2, randsrc.New(1))
	require.NoError(t, err)

	assert.Equal(t, "step", r.PatternType)
	assert.Len(t, r.Values, 20)
	assert.Equal(t, 100.0, r.Statistics.Min)
	assert.Equal(t, 200.0, r.Statistics.Max)
	assert.InDelta(t, 150, r.Statistics.Mean, 1e-9)

	r, err = PatternReport(7, "unheard-of", 1, 3, randsrc.New(1))
	require.NoError(t, err)
	assert.Equal(t, "constant", r.PatternType)
	assert.Equal(t, []float64{7, 7, 7}, r.Values)

	_, err = PatternReport(1, "sine", -1, 1, randsrc.New(1))
	assert.Error(t, err)
}

func TestDemo_IsReproducible(t *testing.T) {
	a, err := Demo(start)
	require.NoError(t, err)
	b, err := Demo(start)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a.PatternHead, 5)
	assert.Equal(t, 999.0, a.Tests["sudden"].Result["temperature"])
	assert.InDelta(t, 100, a.Tests["gradual_with_noise"].Result["pressure"].(float64), 50)
	assert.NotEmpty(t, a.Capabilities)
}
