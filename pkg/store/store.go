// Package store persiste simuladores e cenários de falha. Os backends
// disponíveis são memória, Postgres, SQLite e DynamoDB, com cache opcional
// no Redis para a leitura por nome.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
)

var (
	// ErrNotFound indica que a entidade não existe.
	ErrNotFound = errors.New("store: registro não encontrado")
	// ErrConflict indica violação de unicidade (dono + nome do simulador).
	ErrConflict = errors.New("store: registro duplicado")
)

// Limites de paginação.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Simulator é um endpoint nomeado que devolve um mapa de parâmetros.
type Simulator struct {
	ID         string               `json:"id"`
	Owner      string               `json:"user_id"`
	Name       string               `json:"name"`
	Parameters failure.ParameterMap `json:"parameters"`
	Active     bool                 `json:"is_active"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Scenario é um cenário de falha, aplicável a um simulador por vez.
type Scenario struct {
	ID                string                  `json:"id"`
	Owner             string                  `json:"user_id"`
	SimulatorID       string                  `json:"simulator_id,omitempty"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description,omitempty"`
	FailureParameters failure.ParameterMap    `json:"failure_parameters"`
	AdvancedConfig    *failure.AdvancedConfig `json:"advanced_config,omitempty"`
	Condition         string                  `json:"condition,omitempty"`
	Active            bool                    `json:"is_active"`
	Applied           bool                    `json:"is_applied"`
	AppliedAt         *time.Time              `json:"applied_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// Config devolve o ScenarioConfig consumido pelo motor.
func (s *Scenario) Config() failure.ScenarioConfig {
	return failure.ScenarioConfig{
		FailureParameters: s.FailureParameters,
		AdvancedConfig:    s.AdvancedConfig,
	}
}

// Repository é o contrato comum dos backends. Create preenche ID e datas;
// Update preserva CreatedAt e renova UpdatedAt.
type Repository interface {
	CreateSimulator(ctx context.Context, sim *Simulator) error
	GetSimulator(ctx context.Context, id string) (*Simulator, error)
	GetSimulatorByName(ctx context.Context, owner, name string) (*Simulator, error)
	ListSimulators(ctx context.Context, owner string, offset, limit int) ([]Simulator, error)
	UpdateSimulator(ctx context.Context, sim *Simulator) error
	DeleteSimulator(ctx context.Context, id string) error

	CreateScenario(ctx context.Context, sc *Scenario) error
	GetScenario(ctx context.Context, id string) (*Scenario, error)
	ListScenarios(ctx context.Context, owner string, offset, limit int) ([]Scenario, error)
	ListScenariosBySimulator(ctx context.Context, simulatorID string) ([]Scenario, error)
	UpdateScenario(ctx context.Context, sc *Scenario) error
	DeleteScenario(ctx context.Context, id string) error
	// AppliedScenario devolve ErrNotFound quando nenhum cenário está aplicado.
	AppliedScenario(ctx context.Context, simulatorID string) (*Scenario, error)

	Close() error
}

// normalizePage aplica os limites padrão.
func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}

func paginate[T any](items []T, offset, limit int) []T {
	offset, limit = normalizePage(offset, limit)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// sortByCreation ordena por data de criação e depois por ID.
func sortByCreation[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}

func simulatorKey(s Simulator) (time.Time, string) { return s.CreatedAt, s.ID }
func scenarioKey(s Scenario) (time.Time, string)   { return s.CreatedAt, s.ID }

// cloneSimulator copia via JSON para que chamadores não compartilhem mapas.
func cloneSimulator(s *Simulator) *Simulator {
	var out Simulator
	data, _ := json.Marshal(s)
	_ = json.Unmarshal(data, &out)
	return &out
}

func cloneScenario(s *Scenario) *Scenario {
	var out Scenario
	data, _ := json.Marshal(s)
	_ = json.Unmarshal(data, &out)
	return &out
}

// now é truncado em microssegundos, a precisão comum dos bancos SQL.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
