package randsrc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_SameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.UnitUniform(), b.UnitUniform())
		assert.Equal(t, a.Gaussian(0, 1), b.Gaussian(0, 1))
	}
}

func TestSource_SeedResetsStream(t *testing.T) {
	s := New(7)
	first := []float64{s.UnitUniform(), s.UnitUniform()}

	s.Seed(7)
	assert.Equal(t, first, []float64{s.UnitUniform(), s.UnitUniform()})
}

func TestSource_Ranges(t *testing.T) {
	s := New(1)

	for i := 0; i < 500; i++ {
		u := s.UnitUniform()
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)

		v := s.Uniform(-2, 3)
		assert.GreaterOrEqual(t, v, -2.0)
		assert.LessOrEqual(t, v, 3.0)

		assert.GreaterOrEqual(t, s.Exponential(5), 0.0)

		p := s.Poisson(4)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Equal(t, float64(int64(p)), p, "poisson draws are integral")
	}
}

func TestSource_DegenerateParameters(t *testing.T) {
	s := New(1)

	assert.Equal(t, 10.0, s.Gaussian(10, 0))
	assert.Equal(t, 0.0, s.Exponential(0))
	assert.Equal(t, 0.0, s.Poisson(-1))
	assert.Equal(t, 4.0, s.Uniform(4, 4))
	assert.Nil(t, s.Sample(0, 3))
}

func TestSource_SampleWithoutReplacement(t *testing.T) {
	s := New(3)
	idx := s.Sample(100, 5)

	assert.Len(t, idx, 5)
	seen := map[int]bool{}
	for _, i := range idx {
		assert.False(t, seen[i], "duplicate index %d", i)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 100)
		seen[i] = true
	}

	assert.Len(t, s.Sample(3, 10), 3)
}

func TestSource_ConcurrentDraws(t *testing.T) {
	s := New(99)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = s.Gaussian(0, 1)
				_ = s.UnitUniform()
			}
		}()
	}
	wg.Wait()
}
