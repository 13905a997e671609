package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Empty(t *testing.T) {
	s := Analyze(nil)

	assert.True(t, s.Empty())
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestAnalyze_SingleValue(t *testing.T) {
	s := Analyze([]float64{5})

	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 5.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 5.0, s.Median)
	assert.Zero(t, s.Std)
	assert.Zero(t, s.Variance)
	assert.Zero(t, s.Skewness)
	assert.Zero(t, s.Kurtosis)
}

func TestAnalyze_Moments(t *testing.T) {
	s := Analyze([]float64{1, 2, 3, 4})

	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.25, s.Variance, 1e-12)
	assert.InDelta(t, 1.118033988749895, s.Std, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.InDelta(t, 0, s.Skewness, 1e-12)
	assert.InDelta(t, -1.36, s.Kurtosis, 1e-12)
	assert.Equal(t, 4, s.Count())
}

func TestAnalyze_SkewedSample(t *testing.T) {
	s := Analyze([]float64{1, 1, 1, 10})

	assert.Greater(t, s.Skewness, 0.0)
	assert.Equal(t, 1.0, s.Median)
	assert.Equal(t, 10.0, s.Max)
}

func TestAnalyze_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Analyze(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestStatistics_JSONFields(t *testing.T) {
	b, err := json.Marshal(Analyze([]float64{1, 2}))
	require.NoError(t, err)

	var m map[string]float64
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"mean", "std", "min", "max", "median", "q25", "q75", "variance", "skewness", "kurtosis"} {
		assert.Contains(t, m, k)
	}
}
