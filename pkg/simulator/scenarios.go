package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/store"
)

// ScenarioInput é o corpo de criação de cenário. AdvancedConfig chega cru
// para que tipos de falha desconhecidos virem ErrInvalidConfiguration.
type ScenarioInput struct {
	Name              string               `json:"name" validate:"required,max=255"`
	Description       string               `json:"description"`
	SimulatorID       string               `json:"simulator_id"`
	FailureParameters failure.ParameterMap `json:"failure_parameters" validate:"required,min=1"`
	AdvancedConfig    json.RawMessage      `json:"advanced_config"`
	Condition         string               `json:"condition"`
	Active            *bool                `json:"is_active"`
}

type ScenarioPatch struct {
	Name              *string              `json:"name" validate:"omitempty,min=1,max=255"`
	Description       *string              `json:"description"`
	FailureParameters failure.ParameterMap `json:"failure_parameters" validate:"omitempty,min=1"`
	AdvancedConfig    json.RawMessage      `json:"advanced_config"`
	Condition         *string              `json:"condition"`
	Active            *bool                `json:"is_active"`
}

// CurrentResponse descreve o que o simulador devolve agora.
type CurrentResponse struct {
	SimulatorID        string               `json:"simulator_id"`
	SimulatorName      string               `json:"simulator_name"`
	ActiveScenarioID   *string              `json:"active_scenario_id"`
	ActiveScenarioName *string              `json:"active_scenario_name"`
	OriginalParameters failure.ParameterMap `json:"original_parameters"`
	FailureParameters  failure.ParameterMap `json:"failure_parameters"`
	CurrentResponse    failure.ParameterMap `json:"current_response"`
	Timestamp          time.Time            `json:"timestamp"`
}

// ApplyResult e ReleaseResult são os corpos de apply e release.
type ApplyResult struct {
	Message      string    `json:"message"`
	SimulatorID  string    `json:"simulator_id"`
	ScenarioID   string    `json:"scenario_id"`
	ScenarioName string    `json:"scenario_name"`
	AppliedAt    time.Time `json:"applied_at"`
}

type ReleaseResult struct {
	Message     string `json:"message"`
	SimulatorID string `json:"simulator_id"`
	ScenarioID  string `json:"scenario_id"`
}

func (s *Service) checkCondition(expr string) error {
	if err := s.rules.Check(expr); err != nil {
		return fmt.Errorf("%w: condição inválida: %v", ErrValidation, err)
	}
	return nil
}

func (s *Service) CreateScenario(ctx context.Context, owner string, in ScenarioInput) (*store.Scenario, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	adv, err := failure.DecodeAdvancedConfig(in.AdvancedConfig)
	if err != nil {
		return nil, err
	}
	if err := s.checkCondition(in.Condition); err != nil {
		return nil, err
	}
	if in.SimulatorID != "" {
		if _, err := s.ownedSimulator(ctx, owner, in.SimulatorID); err != nil {
			return nil, err
		}
	}

	sc := &store.Scenario{
		Owner:             owner,
		SimulatorID:       in.SimulatorID,
		Name:              in.Name,
		Description:       in.Description,
		FailureParameters: in.FailureParameters,
		AdvancedConfig:    adv,
		Condition:         in.Condition,
		Active:            boolOr(in.Active, true),
	}
	if err := s.repo.CreateScenario(ctx, sc); err != nil {
		return nil, err
	}
	s.logger.Info().Str("scenario_id", sc.ID).Str("owner", owner).Msg("Cenário de falha criado")
	return sc, nil
}

func (s *Service) GetScenario(ctx context.Context, owner, id string) (*store.Scenario, error) {
	return s.ownedScenario(ctx, owner, id)
}

func (s *Service) ListScenarios(ctx context.Context, owner string, offset, limit int) ([]store.Scenario, error) {
	return s.repo.ListScenarios(ctx, owner, offset, limit)
}

// ListScenariosBySimulator exige que o simulador pertença a owner.
func (s *Service) ListScenariosBySimulator(ctx context.Context, owner, simulatorID string) ([]store.Scenario, error) {
	if _, err := s.ownedSimulator(ctx, owner, simulatorID); err != nil {
		return nil, err
	}
	return s.repo.ListScenariosBySimulator(ctx, simulatorID)
}

func (s *Service) UpdateScenario(ctx context.Context, owner, id string, patch ScenarioPatch) (*store.Scenario, error) {
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}
	sc, err := s.ownedScenario(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		sc.Name = *patch.Name
	}
	if patch.Description != nil {
		sc.Description = *patch.Description
	}
	if patch.FailureParameters != nil {
		sc.FailureParameters = patch.FailureParameters
	}
	if len(patch.AdvancedConfig) > 0 {
		adv, err := failure.DecodeAdvancedConfig(patch.AdvancedConfig)
		if err != nil {
			return nil, err
		}
		sc.AdvancedConfig = adv
	}
	if patch.Condition != nil {
		if err := s.checkCondition(*patch.Condition); err != nil {
			return nil, err
		}
		sc.Condition = *patch.Condition
	}
	if patch.Active != nil {
		sc.Active = *patch.Active
	}

	if err := s.repo.UpdateScenario(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) DeleteScenario(ctx context.Context, owner, id string) error {
	sc, err := s.ownedScenario(ctx, owner, id)
	if err != nil {
		return err
	}
	if sc.Applied {
		return ErrScenarioApplied
	}
	return s.repo.DeleteScenario(ctx, id)
}

// ApplyScenario vincula o cenário ao simulador. Um cenário já aplicado
// nesse simulador é liberado antes.
func (s *Service) ApplyScenario(ctx context.Context, owner, scenarioID, simulatorID string) (*ApplyResult, error) {
	if _, err := s.ownedSimulator(ctx, owner, simulatorID); err != nil {
		return nil, err
	}
	sc, err := s.ownedScenario(ctx, owner, scenarioID)
	if err != nil {
		return nil, err
	}
	if !sc.Active {
		return nil, ErrScenarioInactive
	}

	prev, err := s.repo.AppliedScenario(ctx, simulatorID)
	switch {
	case err == nil && prev.ID != sc.ID:
		prev.Applied = false
		prev.AppliedAt = nil
		if err := s.repo.UpdateScenario(ctx, prev); err != nil {
			return nil, fmt.Errorf("falha ao liberar cenário anterior: %w", err)
		}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	// Um cenário aplica em um simulador por vez.
	if sc.Applied && sc.SimulatorID != "" && sc.SimulatorID != simulatorID {
		s.logger.Info().Str("scenario_id", sc.ID).Str("from", sc.SimulatorID).Str("to", simulatorID).
			Msg("Cenário movido para outro simulador")
	}

	appliedAt := s.now().UTC()
	sc.SimulatorID = simulatorID
	sc.Applied = true
	sc.AppliedAt = &appliedAt
	if err := s.repo.UpdateScenario(ctx, sc); err != nil {
		return nil, err
	}

	s.logger.Info().Str("scenario_id", sc.ID).Str("simulator_id", simulatorID).Msg("Cenário de falha aplicado")
	return &ApplyResult{
		Message:      fmt.Sprintf("cenário '%s' aplicado", sc.Name),
		SimulatorID:  simulatorID,
		ScenarioID:   sc.ID,
		ScenarioName: sc.Name,
		AppliedAt:    appliedAt,
	}, nil
}

func (s *Service) ReleaseScenario(ctx context.Context, owner, simulatorID string) (*ReleaseResult, error) {
	if _, err := s.ownedSimulator(ctx, owner, simulatorID); err != nil {
		return nil, err
	}
	sc, err := s.repo.AppliedScenario(ctx, simulatorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoAppliedScenario
	}
	if err != nil {
		return nil, err
	}

	sc.Applied = false
	sc.AppliedAt = nil
	if err := s.repo.UpdateScenario(ctx, sc); err != nil {
		return nil, err
	}

	s.logger.Info().Str("scenario_id", sc.ID).Str("simulator_id", simulatorID).Msg("Cenário de falha liberado")
	return &ReleaseResult{
		Message:     fmt.Sprintf("cenário '%s' liberado", sc.Name),
		SimulatorID: simulatorID,
		ScenarioID:  sc.ID,
	}, nil
}

// CurrentResponse mostra os parâmetros originais, o cenário aplicado e a
// resposta que o simulador daria em now, com o mesmo critério de
// GetSimulatorData. Exige posse do simulador.
func (s *Service) CurrentResponse(ctx context.Context, owner, simulatorID string, now time.Time) (*CurrentResponse, error) {
	sim, err := s.ownedSimulator(ctx, owner, simulatorID)
	if err != nil {
		return nil, err
	}

	out := &CurrentResponse{
		SimulatorID:        sim.ID,
		SimulatorName:      sim.Name,
		OriginalParameters: sim.Parameters,
		CurrentResponse:    sim.Parameters,
		Timestamp:          now,
	}

	sc, err := s.repo.AppliedScenario(ctx, simulatorID)
	if errors.Is(err, store.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	out.ActiveScenarioID = &sc.ID
	out.ActiveScenarioName = &sc.Name
	out.FailureParameters = sc.FailureParameters

	evalCtx := evaluationContext(sim, sc, s.engine.Elapsed(now), now)
	if !s.scenarioEngaged(sc, evalCtx) {
		return out, nil
	}
	current, err := s.engine.Apply(sim.Parameters, sc.Config(), now)
	if err != nil {
		return nil, err
	}
	out.CurrentResponse = current
	return out, nil
}
