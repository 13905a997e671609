package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory guarda tudo em mapas protegidos por RWMutex.
type Memory struct {
	mu         sync.RWMutex
	simulators map[string]*Simulator
	scenarios  map[string]*Scenario
}

func NewMemory() *Memory {
	return &Memory{
		simulators: map[string]*Simulator{},
		scenarios:  map[string]*Scenario{},
	}
}

func (m *Memory) CreateSimulator(_ context.Context, sim *Simulator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findByName(sim.Owner, sim.Name, "") != nil {
		return ErrConflict
	}
	sim.ID = uuid.NewString()
	sim.CreatedAt = now()
	sim.UpdatedAt = sim.CreatedAt
	m.simulators[sim.ID] = cloneSimulator(sim)
	return nil
}

func (m *Memory) GetSimulator(_ context.Context, id string) (*Simulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.simulators[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSimulator(s), nil
}

func (m *Memory) GetSimulatorByName(_ context.Context, owner, name string) (*Simulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.findByName(owner, name, "")
	if s == nil {
		return nil, ErrNotFound
	}
	return cloneSimulator(s), nil
}

func (m *Memory) findByName(owner, name, exceptID string) *Simulator {
	for _, s := range m.simulators {
		if s.Owner == owner && s.Name == name && s.ID != exceptID {
			return s
		}
	}
	return nil
}

func (m *Memory) ListSimulators(_ context.Context, owner string, offset, limit int) ([]Simulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Simulator
	for _, s := range m.simulators {
		if s.Owner == owner {
			out = append(out, *cloneSimulator(s))
		}
	}
	sortByCreation(out, simulatorKey)
	return paginate(out, offset, limit), nil
}

func (m *Memory) UpdateSimulator(_ context.Context, sim *Simulator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.simulators[sim.ID]
	if !ok {
		return ErrNotFound
	}
	if m.findByName(sim.Owner, sim.Name, sim.ID) != nil {
		return ErrConflict
	}
	sim.CreatedAt = cur.CreatedAt
	sim.UpdatedAt = now()
	m.simulators[sim.ID] = cloneSimulator(sim)
	return nil
}

func (m *Memory) DeleteSimulator(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.simulators[id]; !ok {
		return ErrNotFound
	}
	delete(m.simulators, id)
	return nil
}

func (m *Memory) CreateScenario(_ context.Context, sc *Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc.ID = uuid.NewString()
	sc.CreatedAt = now()
	sc.UpdatedAt = sc.CreatedAt
	m.scenarios[sc.ID] = cloneScenario(sc)
	return nil
}

func (m *Memory) GetScenario(_ context.Context, id string) (*Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneScenario(s), nil
}

func (m *Memory) ListScenarios(_ context.Context, owner string, offset, limit int) ([]Scenario, error) {
	return m.listScenarios(func(s *Scenario) bool { return s.Owner == owner }, offset, limit), nil
}

func (m *Memory) ListScenariosBySimulator(_ context.Context, simulatorID string) ([]Scenario, error) {
	return m.listScenarios(func(s *Scenario) bool { return s.SimulatorID == simulatorID }, 0, MaxLimit), nil
}

func (m *Memory) listScenarios(match func(*Scenario) bool, offset, limit int) []Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Scenario
	for _, s := range m.scenarios {
		if match(s) {
			out = append(out, *cloneScenario(s))
		}
	}
	sortByCreation(out, scenarioKey)
	return paginate(out, offset, limit)
}

func (m *Memory) UpdateScenario(_ context.Context, sc *Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.scenarios[sc.ID]
	if !ok {
		return ErrNotFound
	}
	sc.CreatedAt = cur.CreatedAt
	sc.UpdatedAt = now()
	m.scenarios[sc.ID] = cloneScenario(sc)
	return nil
}

func (m *Memory) DeleteScenario(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[id]; !ok {
		return ErrNotFound
	}
	delete(m.scenarios, id)
	return nil
}

func (m *Memory) AppliedScenario(_ context.Context, simulatorID string) (*Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.scenarios {
		if s.SimulatorID == simulatorID && s.Applied {
			return cloneScenario(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Close() error { return nil }
