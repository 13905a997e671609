package store

import (
	"context"
	"testing"
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

// runRepositoryTests exercita o contrato comum de todos os backends.
func runRepositoryTests(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("Simulator CRUD", func(t *testing.T) {
		repo := newRepo(t)

		sim := &Simulator{Owner: "u1", Name: "sensor", Active: true,
			Parameters: failure.ParameterMap{"temperature": 25.0, "status": "ok"}}
		require.NoError(t, repo.CreateSimulator(ctx, sim))
		assert.NotEmpty(t, sim.ID)
		assert.False(t, sim.CreatedAt.IsZero())

		got, err := repo.GetSimulator(ctx, sim.ID)
		require.NoError(t, err)
		assert.Equal(t, "sensor", got.Name)
		assert.Equal(t, 25.0, got.Parameters["temperature"])
		assert.True(t, got.Active)
		assert.True(t, sim.CreatedAt.Equal(got.CreatedAt))

		byName, err := repo.GetSimulatorByName(ctx, "u1", "sensor")
		require.NoError(t, err)
		assert.Equal(t, sim.ID, byName.ID)

		_, err = repo.GetSimulatorByName(ctx, "u2", "sensor")
		assert.ErrorIs(t, err, ErrNotFound)

		created := got.CreatedAt
		got.Name = "sensor-v2"
		got.Active = false
		require.NoError(t, repo.UpdateSimulator(ctx, got))

		updated, err := repo.GetSimulator(ctx, sim.ID)
		require.NoError(t, err)
		assert.Equal(t, "sensor-v2", updated.Name)
		assert.False(t, updated.Active)
		assert.True(t, created.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created))

		require.NoError(t, repo.DeleteSimulator(ctx, sim.ID))
		_, err = repo.GetSimulator(ctx, sim.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.DeleteSimulator(ctx, sim.ID), ErrNotFound)
	})

	t.Run("Simulator Name Is Unique Per Owner", func(t *testing.T) {
		repo := newRepo(t)

		a := &Simulator{Owner: "u1", Name: "pump", Parameters: failure.ParameterMap{"rpm": 1.0}}
		require.NoError(t, repo.CreateSimulator(ctx, a))

		dup := &Simulator{Owner: "u1", Name: "pump", Parameters: failure.ParameterMap{"rpm": 2.0}}
		assert.ErrorIs(t, repo.CreateSimulator(ctx, dup), ErrConflict)

		other := &Simulator{Owner: "u2", Name: "pump", Parameters: failure.ParameterMap{"rpm": 3.0}}
		require.NoError(t, repo.CreateSimulator(ctx, other))

		b := &Simulator{Owner: "u1", Name: "valve", Parameters: failure.ParameterMap{"open": true}}
		require.NoError(t, repo.CreateSimulator(ctx, b))
		b.Name = "pump"
		assert.ErrorIs(t, repo.UpdateSimulator(ctx, b), ErrConflict)

		ghost := &Simulator{ID: "missing", Owner: "u1", Name: "ghost"}
		assert.ErrorIs(t, repo.UpdateSimulator(ctx, ghost), ErrNotFound)
	})

	t.Run("List Simulators Paginates In Creation Order", func(t *testing.T) {
		repo := newRepo(t)

		names := []string{"a", "b", "c", "d"}
		for _, n := range names {
			require.NoError(t, repo.CreateSimulator(ctx, &Simulator{Owner: "u1", Name: n,
				Parameters: failure.ParameterMap{"v": 1.0}}))
			time.Sleep(2 * time.Millisecond)
		}
		require.NoError(t, repo.CreateSimulator(ctx, &Simulator{Owner: "u2", Name: "x",
			Parameters: failure.ParameterMap{"v": 1.0}}))

		all, err := repo.ListSimulators(ctx, "u1", 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i, n := range names {
			assert.Equal(t, n, all[i].Name)
		}

		page, err := repo.ListSimulators(ctx, "u1", 1, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "b", page[0].Name)
		assert.Equal(t, "c", page[1].Name)

		empty, err := repo.ListSimulators(ctx, "u1", 10, 5)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Scenario Lifecycle", func(t *testing.T) {
		repo := newRepo(t)

		sim := &Simulator{Owner: "u1", Name: "sensor", Active: true, Parameters: failure.ParameterMap{"temperature": 25.0}}
		require.NoError(t, repo.CreateSimulator(ctx, sim))

		adv := &failure.AdvancedConfig{
			Probability: f64(0.5),
			Parameters: map[string]failure.ParamFailureSpec{
				"temperature": {FailureType: failure.Gradual, FailureValue: 100.0, DurationSeconds: f64(30),
					Clamp: &failure.ClampSpec{Max: f64(90)}},
			},
		}
		sc := &Scenario{Owner: "u1", Name: "overheat", Description: "forno", Active: true,
			FailureParameters: failure.ParameterMap{"temperature": 100.0},
			AdvancedConfig:    adv, Condition: "params.temperature > 0"}
		require.NoError(t, repo.CreateScenario(ctx, sc))
		assert.NotEmpty(t, sc.ID)

		got, err := repo.GetScenario(ctx, sc.ID)
		require.NoError(t, err)
		assert.Equal(t, "overheat", got.Name)
		assert.Equal(t, 100.0, got.FailureParameters["temperature"])
		require.NotNil(t, got.AdvancedConfig)
		assert.Equal(t, adv, got.AdvancedConfig)
		assert.Equal(t, "params.temperature > 0", got.Condition)
		assert.False(t, got.Applied)
		assert.Nil(t, got.AppliedAt)

		_, err = repo.AppliedScenario(ctx, sim.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		appliedAt := time.Now().UTC().Truncate(time.Millisecond)
		got.SimulatorID = sim.ID
		got.Applied = true
		got.AppliedAt = &appliedAt
		require.NoError(t, repo.UpdateScenario(ctx, got))

		applied, err := repo.AppliedScenario(ctx, sim.ID)
		require.NoError(t, err)
		assert.Equal(t, sc.ID, applied.ID)
		require.NotNil(t, applied.AppliedAt)
		assert.True(t, appliedAt.Equal(*applied.AppliedAt))

		bySim, err := repo.ListScenariosBySimulator(ctx, sim.ID)
		require.NoError(t, err)
		assert.Len(t, bySim, 1)

		second := &Scenario{Owner: "u1", Name: "spike", FailureParameters: failure.ParameterMap{"temperature": 500.0}}
		require.NoError(t, repo.CreateScenario(ctx, second))
		require.NoError(t, repo.CreateScenario(ctx, &Scenario{Owner: "u2", Name: "other",
			FailureParameters: failure.ParameterMap{"x": 1.0}}))

		mine, err := repo.ListScenarios(ctx, "u1", 0, 10)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		require.NoError(t, repo.DeleteScenario(ctx, second.ID))
		assert.ErrorIs(t, repo.DeleteScenario(ctx, second.ID), ErrNotFound)
		_, err = repo.GetScenario(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		ghost := &Scenario{ID: "missing", Owner: "u1", Name: "ghost"}
		assert.ErrorIs(t, repo.UpdateScenario(ctx, ghost), ErrNotFound)
	})

	require.NoError(t, newRepo(t).Close())
}

func TestMemory_Repository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) Repository { return NewMemory() })
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	sim := &Simulator{Owner: "u1", Name: "s", Parameters: failure.ParameterMap{"v": 1.0}}
	require.NoError(t, repo.CreateSimulator(ctx, sim))
	sim.Parameters["v"] = 99.0

	got, err := repo.GetSimulator(ctx, sim.ID)
	require.NoError(t, err)
	got.Parameters["v"] = 42.0

	again, err := repo.GetSimulator(ctx, sim.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Parameters["v"])
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name                  string
		offset, limit         int
		wantOffset, wantLimit int
	}{
		{"Defaults", 0, 0, 0, DefaultLimit},
		{"Negative Offset", -3, 5, 0, 5},
		{"Caps Limit", 0, 5000, 0, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, l := normalizePage(tt.offset, tt.limit)
			assert.Equal(t, tt.wantOffset, o)
			assert.Equal(t, tt.wantLimit, l)
		})
	}
}
