package failure

import "sync"

// fixedRandom returns scripted draws so transforms can be checked exactly.
type fixedRandom struct {
	unit     float64
	gaussian float64 // standard normal z
	uniform  float64 // fraction of the [low, high) range
	expo     float64 // multiple of the scale
	poisson  float64
	calls    int
}

func (f *fixedRandom) UnitUniform() float64 {
	f.calls++
	return f.unit
}

func (f *fixedRandom) Uniform(low, high float64) float64 {
	f.calls++
	return low + (high-low)*f.uniform
}

func (f *fixedRandom) Gaussian(mean, std float64) float64 {
	f.calls++
	return mean + std*f.gaussian
}

func (f *fixedRandom) Exponential(scale float64) float64 {
	f.calls++
	return scale * f.expo
}

func (f *fixedRandom) Poisson(float64) float64 {
	f.calls++
	return f.poisson
}

func (f *fixedRandom) Sample(n, k int) []int {
	f.calls++
	out := make([]int, 0, k)
	for i := 0; i < k && i < n; i++ {
		out = append(out, i)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// recordingSink keeps every history record in order.
type recordingSink struct {
	mu      sync.Mutex
	records []HistoryRecord
}

func (r *recordingSink) Record(rec HistoryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recordingSink) Records() []HistoryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HistoryRecord(nil), r.records...)
}
