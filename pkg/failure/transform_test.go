package failure

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_Modes(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		spec    ParamFailureSpec
		elapsed float64
		rng     *fixedRandom
		want    any
	}{
		{"sudden uses failure_value", 25.0, ParamFailureSpec{FailureType: Sudden, FailureValue: 999.0}, 0, &fixedRandom{}, 999.0},
		{"sudden defaults to ten times", 25.0, ParamFailureSpec{FailureType: Sudden}, 0, &fixedRandom{}, 250.0},
		{"sudden keeps string failure_value", 25.0, ParamFailureSpec{FailureType: Sudden, FailureValue: "FAULT"}, 0, &fixedRandom{}, "FAULT"},
		{"gradual at start", 10.0, ParamFailureSpec{FailureType: Gradual, FailureValue: 20.0}, 0, &fixedRandom{}, 10.0},
		{"gradual halfway", 10.0, ParamFailureSpec{FailureType: Gradual, FailureValue: 20.0, DurationSeconds: ptr(60)}, 30, &fixedRandom{}, 15.0},
		{"gradual after duration", 10.0, ParamFailureSpec{FailureType: Gradual, FailureValue: 20.0, DurationSeconds: ptr(60)}, 600, &fixedRandom{}, 20.0},
		{"gradual default target", 10.0, ParamFailureSpec{FailureType: Gradual}, 60, &fixedRandom{}, 100.0},
		{"gradual before start", 10.0, ParamFailureSpec{FailureType: Gradual, FailureValue: 20.0}, -30, &fixedRandom{}, 10.0},
		{"intermittent fires", 50.0, ParamFailureSpec{FailureType: Intermittent, FailureValue: 0.0}, 0, &fixedRandom{unit: 0.1}, 0.0},
		{"intermittent holds", 50.0, ParamFailureSpec{FailureType: Intermittent, FailureValue: 0.0}, 0, &fixedRandom{unit: 0.3}, 50.0},
		{"intermittent custom probability", 50.0, ParamFailureSpec{FailureType: Intermittent, FailureProbability: ptr(0.9)}, 0, &fixedRandom{unit: 0.8}, 500.0},
		{"cyclic at zero", 100.0, ParamFailureSpec{FailureType: Cyclic, Amplitude: ptr(10)}, 0, &fixedRandom{}, 100.0},
		{"cyclic quarter period", 100.0, ParamFailureSpec{FailureType: Cyclic, Amplitude: ptr(10), PeriodSeconds: ptr(40)}, 10, &fixedRandom{}, 110.0},
		{"cyclic default amplitude", 100.0, ParamFailureSpec{FailureType: Cyclic}, 15, &fixedRandom{}, 150.0},
		{"random walk default step", 100.0, ParamFailureSpec{FailureType: RandomWalk}, 0, &fixedRandom{gaussian: 2}, 120.0},
		{"random walk step size", 100.0, ParamFailureSpec{FailureType: RandomWalk, StepSize: ptr(1)}, 0, &fixedRandom{gaussian: -1.5}, 98.5},
		{"drift default rate", 50.0, ParamFailureSpec{FailureType: Drift}, 10, &fixedRandom{}, 100.0},
		{"drift custom rate", 50.0, ParamFailureSpec{FailureType: Drift, DriftRate: ptr(0.5)}, 2, &fixedRandom{}, 100.0},
		{"no failure type", 7, ParamFailureSpec{}, 100, &fixedRandom{}, 7},
		{"integer input", 4, ParamFailureSpec{FailureType: Drift, DriftRate: ptr(1)}, 1, &fixedRandom{}, 8.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transform(tt.value, tt.spec, tt.elapsed, tt.rng)
			require.NoError(t, err)
			if f, ok := tt.want.(float64); ok {
				assert.InDelta(t, f, got, 1e-9)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransform_NonNumeric(t *testing.T) {
	t.Run("sudden and intermittent substitute without drawing", func(t *testing.T) {
		for _, ft := range []FailureType{Sudden, Intermittent} {
			rng := &fixedRandom{unit: 0.99}
			got, err := Transform("OK", ParamFailureSpec{FailureType: ft, FailureValue: "ERROR"}, 0, rng)
			require.NoError(t, err)
			assert.Equal(t, "ERROR", got, ft.String())
			assert.Zero(t, rng.calls)
		}
	})

	t.Run("no failure_value keeps the original", func(t *testing.T) {
		got, err := Transform("OK", ParamFailureSpec{FailureType: Sudden}, 0, &fixedRandom{})
		require.NoError(t, err)
		assert.Equal(t, "OK", got)
	})

	t.Run("time based modes pass through", func(t *testing.T) {
		for _, ft := range []FailureType{Gradual, Cyclic, RandomWalk, Drift} {
			got, err := Transform(true, ParamFailureSpec{FailureType: ft, FailureValue: 1.0}, 30, &fixedRandom{})
			require.NoError(t, err)
			assert.Equal(t, true, got, ft.String())
		}
	})
}

func TestTransform_InvalidConfiguration(t *testing.T) {
	_, err := Transform(1.0, ParamFailureSpec{FailureType: FailureType(42)}, 0, &fixedRandom{})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = Transform(1.0, ParamFailureSpec{FailureType: Gradual, FailureValue: "x"}, 0, &fixedRandom{})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = Transform(1.0, ParamFailureSpec{FailureType: Cyclic, PeriodSeconds: ptr(0)}, 0, &fixedRandom{})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestFailureType_JSON(t *testing.T) {
	var spec ParamFailureSpec
	require.NoError(t, json.Unmarshal([]byte(`{"failure_type":"random_walk","step_size":2}`), &spec))
	assert.Equal(t, RandomWalk, spec.FailureType)
	assert.Equal(t, 2.0, *spec.StepSize)

	err := json.Unmarshal([]byte(`{"failure_type":"meltdown"}`), &spec)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	out, err := json.Marshal(ParamFailureSpec{FailureType: Drift})
	require.NoError(t, err)
	assert.JSONEq(t, `{"failure_type":"drift"}`, string(out))

	out, err = json.Marshal(ParamFailureSpec{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}
