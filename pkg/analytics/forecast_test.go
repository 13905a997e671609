package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictFailureProbability(t *testing.T) {
	tests := []struct {
		name      string
		history   []float64
		threshold float64
		steps     int
		want      float64
	}{
		{"too short", []float64{5}, 0, 10, 0},
		{"flat and low", []float64{1, 2}, 100, 10, 0},
		{"steep rise", []float64{1, 10, 20, 30, 40}, 50, 10, 1},
		{"crosses halfway", []float64{0, 1, 2, 3, 4}, 9.5, 10, 0.5},
		{"no steps", []float64{1, 2, 3}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PredictFailureProbability(tt.history, tt.threshold, tt.steps), 1e-12)
		})
	}
}

func TestForecast_Trend(t *testing.T) {
	p, err := Forecast([]float64{10, 8, 6, 4}, 0, 3)
	require.NoError(t, err)

	assert.InDelta(t, -2, p.Trend.Slope, 1e-9)
	assert.InDelta(t, 10, p.Trend.Intercept, 1e-9)
	assert.Equal(t, "decreasing", p.Trend.Direction)
	assert.InDeltaSlice(t, []float64{2, 0, -2}, p.PredictedValues, 1e-9)
	assert.InDelta(t, 1.0/3.0, p.FailureProbability, 1e-12)
	assert.Equal(t, 4, p.HistoryLength)
	assert.InDelta(t, 7, p.Statistics.Mean, 1e-12)
}

func TestForecast_Errors(t *testing.T) {
	_, err := Forecast([]float64{1}, 0, 10)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Forecast([]float64{1, 2}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
