// Package randsrc provides the seedable random stream used by the failure engine
// and the pattern generator.
//
// Each Source owns its own PCG state, so two engines seeded with the same value
// produce the same sequence regardless of what other engines in the process do.
// Draws are serialized with a mutex; a Source may be shared by concurrent
// requests, but reproducibility is only guaranteed for sequential callers.
package randsrc

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator is the set of draws consumed by the engine packages.
type Generator interface {
	UnitUniform() float64
	Uniform(low, high float64) float64
	Gaussian(mean, std float64) float64
	Exponential(scale float64) float64
	Poisson(lambda float64) float64
	Sample(n, k int) []int
}

// Source is a mutex-guarded random stream backed by gonum distributions.
type Source struct {
	mu  sync.Mutex
	src *rand.PCGSource
}

// New returns a Source seeded with seed.
func New(seed int64) *Source {
	s := &Source{src: &rand.PCGSource{}}
	s.src.Seed(uint64(seed))
	return s
}

// NewFromTime returns a Source seeded from the wall clock.
func NewFromTime() *Source {
	return New(time.Now().UnixNano())
}

// Seed resets the stream.
func (s *Source) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(uint64(seed))
}

// UnitUniform returns a sample in [0, 1).
func (s *Source) UnitUniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(s.src).Float64()
}

func (s *Source) Uniform(low, high float64) float64 {
	if high <= low {
		return low
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return distuv.Uniform{Min: low, Max: high, Src: s.src}.Rand()
}

// Gaussian draws from N(mean, std). A non-positive std returns mean.
func (s *Source) Gaussian(mean, std float64) float64 {
	if std <= 0 {
		return mean
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return distuv.Normal{Mu: mean, Sigma: std, Src: s.src}.Rand()
}

// Exponential draws from an exponential distribution with the given scale
// (mean). A non-positive scale returns 0.
func (s *Source) Exponential(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return distuv.Exponential{Rate: 1 / scale, Src: s.src}.Rand()
}

// Poisson draws a count with mean lambda. A non-positive lambda returns 0.
func (s *Source) Poisson(lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return distuv.Poisson{Lambda: lambda, Src: s.src}.Rand()
}

// Sample picks k distinct indices from [0, n).
func (s *Source) Sample(n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(s.src).Perm(n)[:k]
}
