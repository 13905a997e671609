package analytics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultFutureSteps is the horizon callers use when none is requested.
const DefaultFutureSteps = 10

var (
	// ErrInsufficientData means fewer than two history points were supplied.
	ErrInsufficientData = errors.New("analytics: at least 2 data points are required")
	ErrInvalidInput     = errors.New("analytics: invalid input")
)

// Trend is the least-squares line fitted to (index, value).
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Direction string  `json:"direction"`
}

// Prediction is the full result of Forecast.
type Prediction struct {
	HistoryLength      int        `json:"history_length"`
	Threshold          float64    `json:"threshold"`
	FutureSteps        int        `json:"future_steps"`
	FailureProbability float64    `json:"failure_probability"`
	PredictedValues    []float64  `json:"predicted_values"`
	Trend              Trend      `json:"trend"`
	Statistics         Statistics `json:"statistics"`
}

// PredictFailureProbability returns the share of the next futureSteps
// extrapolated points that exceed threshold. It returns 0 when history has
// fewer than two points or futureSteps is not positive.
func PredictFailureProbability(history []float64, threshold float64, futureSteps int) float64 {
	p, err := Forecast(history, threshold, futureSteps)
	if err != nil {
		return 0
	}
	return p.FailureProbability
}

// Forecast fits a line to history by index and extrapolates it futureSteps
// points past the last index.
func Forecast(history []float64, threshold float64, futureSteps int) (Prediction, error) {
	if len(history) < 2 {
		return Prediction{}, ErrInsufficientData
	}
	if futureSteps <= 0 {
		return Prediction{}, fmt.Errorf("%w: future_steps must be positive", ErrInvalidInput)
	}

	xs := make([]float64, len(history))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, history, nil, false)

	predicted := make([]float64, futureSteps)
	above := 0
	for i := range predicted {
		x := float64(len(history) + i)
		predicted[i] = intercept + slope*x
		if predicted[i] > threshold {
			above++
		}
	}

	direction := "decreasing"
	if slope > 0 {
		direction = "increasing"
	}

	return Prediction{
		HistoryLength:      len(history),
		Threshold:          threshold,
		FutureSteps:        futureSteps,
		FailureProbability: math.Min(math.Max(float64(above)/float64(futureSteps), 0), 1),
		PredictedValues:    predicted,
		Trend:              Trend{Slope: slope, Intercept: intercept, Direction: direction},
		Statistics:         Analyze(history),
	}, nil
}
