package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
	"github.com/raywall/fast-simulator-toolkit/pkg/rules"
	"github.com/raywall/fast-simulator-toolkit/pkg/store"
)

// SimulatorInput é o corpo de criação de simulador.
type SimulatorInput struct {
	Name       string               `json:"name" validate:"required,max=255,simname"`
	Parameters failure.ParameterMap `json:"parameters" validate:"required,min=1"`
	Active     *bool                `json:"is_active"`
}

// SimulatorPatch altera apenas os campos presentes.
type SimulatorPatch struct {
	Name       *string              `json:"name" validate:"omitempty,max=255,simname"`
	Parameters failure.ParameterMap `json:"parameters" validate:"omitempty,min=1"`
	Active     *bool                `json:"is_active"`
}

// DataResponse é o corpo do endpoint público de dados.
type DataResponse struct {
	Active        bool                 `json:"-"`
	Data          failure.ParameterMap `json:"data,omitempty"`
	Message       string               `json:"message,omitempty"`
	SimulatorName string               `json:"simulator_name"`
	UserID        string               `json:"user_id"`
	ScenarioID    string               `json:"active_scenario_id,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

func (s *Service) CreateSimulator(ctx context.Context, owner string, in SimulatorInput) (*store.Simulator, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if err := validateParameterKeys(in.Parameters); err != nil {
		return nil, err
	}

	sim := &store.Simulator{
		Owner:      owner,
		Name:       in.Name,
		Parameters: in.Parameters,
		Active:     boolOr(in.Active, true),
	}
	if err := s.repo.CreateSimulator(ctx, sim); err != nil {
		return nil, err
	}
	s.logger.Info().Str("simulator_id", sim.ID).Str("owner", owner).Str("name", sim.Name).Msg("Simulador criado")
	return sim, nil
}

func (s *Service) GetSimulator(ctx context.Context, owner, id string) (*store.Simulator, error) {
	return s.ownedSimulator(ctx, owner, id)
}

func (s *Service) ListSimulators(ctx context.Context, owner string, offset, limit int) ([]store.Simulator, error) {
	return s.repo.ListSimulators(ctx, owner, offset, limit)
}

func (s *Service) UpdateSimulator(ctx context.Context, owner, id string, patch SimulatorPatch) (*store.Simulator, error) {
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}
	if err := validateParameterKeys(patch.Parameters); err != nil {
		return nil, err
	}

	sim, err := s.ownedSimulator(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		sim.Name = *patch.Name
	}
	if patch.Parameters != nil {
		sim.Parameters = patch.Parameters
	}
	if patch.Active != nil {
		sim.Active = *patch.Active
	}
	if err := s.repo.UpdateSimulator(ctx, sim); err != nil {
		return nil, err
	}
	return sim, nil
}

// DeleteSimulator remove o simulador e os cenários vinculados a ele.
func (s *Service) DeleteSimulator(ctx context.Context, owner, id string) error {
	if _, err := s.ownedSimulator(ctx, owner, id); err != nil {
		return err
	}
	scenarios, err := s.repo.ListScenariosBySimulator(ctx, id)
	if err != nil {
		return err
	}
	for _, sc := range scenarios {
		if err := s.repo.DeleteScenario(ctx, sc.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if err := s.repo.DeleteSimulator(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("simulator_id", id).Int("scenarios", len(scenarios)).Msg("Simulador removido")
	return nil
}

// ToggleSimulator inverte o estado ativo.
func (s *Service) ToggleSimulator(ctx context.Context, owner, id string) (*store.Simulator, error) {
	sim, err := s.ownedSimulator(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	sim.Active = !sim.Active
	if err := s.repo.UpdateSimulator(ctx, sim); err != nil {
		return nil, err
	}
	return sim, nil
}

// GetSimulatorData monta a resposta pública do simulador. Com um cenário
// aplicado cuja condição seja verdadeira, os parâmetros passam pelo motor.
func (s *Service) GetSimulatorData(ctx context.Context, owner, name string, now time.Time) (*DataResponse, error) {
	sim, err := s.repo.GetSimulatorByName(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	resp := &DataResponse{SimulatorName: sim.Name, UserID: owner, Timestamp: now}
	if !sim.Active {
		resp.Message = InactiveMessage
		s.countRequest(sim, "inactive")
		return resp, nil
	}

	resp.Active = true
	resp.Data = sim.Parameters.Clone()

	sc, err := s.repo.AppliedScenario(ctx, sim.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sc = nil
	case err != nil:
		return nil, err
	}

	elapsed := s.engine.Elapsed(now)
	evalCtx := evaluationContext(sim, sc, elapsed, now)

	if s.scenarioEngaged(sc, evalCtx) {
		perturbed, err := s.engine.Apply(sim.Parameters, sc.Config(), now)
		if err != nil {
			return nil, err
		}
		resp.Data = perturbed
		resp.ScenarioID = sc.ID
	}

	status := "normal"
	if resp.ScenarioID != "" {
		status = "failure"
	}
	s.countRequest(sim, status)

	evalCtx[rules.VarResponse] = map[string]interface{}(resp.Data)
	s.mu.RLock()
	processor := s.processor
	s.mu.RUnlock()
	if err := processor.Observe(evalCtx); err != nil {
		s.logger.Warn().Err(err).Str("simulator", sim.Name).Msg("Falha ao registrar métricas customizadas")
	}
	return resp, nil
}

// scenarioEngaged diz se o cenário aplicado deve perturbar a resposta:
// precisa estar ativo e com a condição verdadeira.
func (s *Service) scenarioEngaged(sc *store.Scenario, evalCtx map[string]interface{}) bool {
	return sc != nil && sc.Active && s.conditionHolds(sc, evalCtx)
}

func (s *Service) conditionHolds(sc *store.Scenario, evalCtx map[string]interface{}) bool {
	ok, err := s.rules.EvaluateBool(sc.Condition, evalCtx)
	if err != nil {
		s.logger.Warn().Err(err).Str("scenario_id", sc.ID).Msg("Condição do cenário falhou; cenário ignorado")
		return false
	}
	return ok
}

func (s *Service) countRequest(sim *store.Simulator, status string) {
	tags := []string{"simulator:" + sim.Name, "status:" + status}
	if err := s.provider.Count(metrics.MetricDataRequests, 1, tags); err != nil {
		s.logger.Warn().Err(err).Msg("Falha ao emitir métrica de requisição")
	}
}

func evaluationContext(sim *store.Simulator, sc *store.Scenario, elapsed float64, now time.Time) map[string]interface{} {
	scenario := map[string]interface{}{}
	if sc != nil {
		scenario = map[string]interface{}{"id": sc.ID, "name": sc.Name}
	}
	return map[string]interface{}{
		rules.VarParams:  map[string]interface{}(sim.Parameters),
		rules.VarElapsed: elapsed,
		rules.VarNow:     now,
		rules.VarSimulator: map[string]interface{}{
			"id": sim.ID, "name": sim.Name, "owner": sim.Owner, "active": sim.Active,
		},
		rules.VarScenario: scenario,
	}
}
