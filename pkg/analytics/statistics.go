// Package analytics summarises series produced by the pattern generator and
// the failure engine, and extrapolates linear trends to estimate how likely a
// parameter is to cross a threshold.
package analytics

import (
	"encoding/json"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics is a descriptive summary. Variance, std, skewness and kurtosis
// are population moments; kurtosis is excess kurtosis.
type Statistics struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Variance float64 `json:"variance"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`

	count int
}

// Empty reports whether the summary was computed over no values.
func (s Statistics) Empty() bool { return s.count == 0 }

// Count is the number of values summarised.
func (s Statistics) Count() int { return s.count }

// MarshalJSON encodes an empty summary as {}.
func (s Statistics) MarshalJSON() ([]byte, error) {
	if s.Empty() {
		return []byte("{}"), nil
	}
	type plain Statistics
	return json.Marshal(plain(s))
}

// Analyze summarises values. An empty slice yields an empty Statistics.
func Analyze(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	mean, variance := stat.PopMeanVariance(values, nil)
	std := math.Sqrt(variance)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Statistics{
		Mean:     mean,
		Std:      std,
		Min:      floats.Min(values),
		Max:      floats.Max(values),
		Median:   percentile(sorted, 0.5),
		Q25:      percentile(sorted, 0.25),
		Q75:      percentile(sorted, 0.75),
		Variance: variance,
		count:    len(values),
	}
	if std > 0 {
		s.Skewness = stat.Moment(3, values, nil) / math.Pow(std, 3)
		s.Kurtosis = stat.Moment(4, values, nil)/math.Pow(std, 4) - 3
	}
	return s
}

// percentile interpolates linearly between closest ranks on the (n-1)p
// position. sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Summary is the reduced form returned with generated patterns.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Summary reduces s to mean, std, min and max.
func (s Statistics) Summary() Summary {
	return Summary{Mean: s.Mean, Std: s.Std, Min: s.Min, Max: s.Max}
}
