package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
	"github.com/raywall/fast-simulator-toolkit/pkg/store"
)

// Seed grava no repositório os simuladores e cenários declarados na
// configuração. Entradas existentes (mesmo dono e nome) são atualizadas.
func (s *Service) Seed(ctx context.Context, cfg *config.ServiceConfig) error {
	sims := make(map[string]*store.Simulator, len(cfg.Simulators))

	for _, seed := range cfg.Simulators {
		sim, err := s.seedSimulator(ctx, seed)
		if err != nil {
			return fmt.Errorf("simulador '%s/%s': %w", seed.Owner, seed.Name, err)
		}
		sims[seed.Owner+"/"+seed.Name] = sim
	}

	for _, seed := range cfg.Scenarios {
		sim, ok := sims[seed.Owner+"/"+seed.Simulator]
		if !ok {
			return fmt.Errorf("cenário '%s': simulador '%s' não declarado", seed.Name, seed.Simulator)
		}
		if err := s.seedScenario(ctx, seed, sim); err != nil {
			return fmt.Errorf("cenário '%s': %w", seed.Name, err)
		}
	}

	s.logger.Info().Int("simulators", len(cfg.Simulators)).Int("scenarios", len(cfg.Scenarios)).
		Msg("Sementes carregadas")
	return nil
}

func (s *Service) seedSimulator(ctx context.Context, seed config.SimulatorSeed) (*store.Simulator, error) {
	params := failure.ParameterMap(seed.Parameters)
	if err := validateParameterKeys(params); err != nil {
		return nil, err
	}
	if !simulatorNamePattern.MatchString(seed.Name) {
		return nil, fmt.Errorf("%w: nome de simulador inválido '%s'", ErrValidation, seed.Name)
	}

	sim, err := s.repo.GetSimulatorByName(ctx, seed.Owner, seed.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sim = &store.Simulator{Owner: seed.Owner, Name: seed.Name, Parameters: params, Active: boolOr(seed.Active, true)}
		return sim, s.repo.CreateSimulator(ctx, sim)
	case err != nil:
		return nil, err
	}

	sim.Parameters = params
	sim.Active = boolOr(seed.Active, sim.Active)
	return sim, s.repo.UpdateSimulator(ctx, sim)
}

func (s *Service) seedScenario(ctx context.Context, seed config.ScenarioSeed, sim *store.Simulator) error {
	var adv *failure.AdvancedConfig
	if len(seed.AdvancedConfig) > 0 {
		raw, err := json.Marshal(seed.AdvancedConfig)
		if err != nil {
			return fmt.Errorf("%w: %v", failure.ErrInvalidConfiguration, err)
		}
		if adv, err = failure.DecodeAdvancedConfig(raw); err != nil {
			return err
		}
	}
	if err := s.checkCondition(seed.Condition); err != nil {
		return err
	}

	existing, err := s.repo.ListScenariosBySimulator(ctx, sim.ID)
	if err != nil {
		return err
	}
	var sc *store.Scenario
	for i := range existing {
		if existing[i].Owner == seed.Owner && existing[i].Name == seed.Name {
			sc = &existing[i]
			break
		}
	}

	if sc == nil {
		sc = &store.Scenario{Owner: seed.Owner, SimulatorID: sim.ID, Name: seed.Name}
	}
	sc.Description = seed.Description
	sc.FailureParameters = failure.ParameterMap(seed.FailureParameters)
	sc.AdvancedConfig = adv
	sc.Condition = seed.Condition
	sc.Active = boolOr(seed.Active, true)

	if sc.ID == "" {
		err = s.repo.CreateScenario(ctx, sc)
	} else {
		err = s.repo.UpdateScenario(ctx, sc)
	}
	if err != nil {
		return err
	}

	if seed.Apply {
		_, err = s.ApplyScenario(ctx, seed.Owner, sc.ID, sim.ID)
	}
	return err
}

// Reload relê a configuração da fonte original, recria o processador de
// métricas customizadas e reaplica as sementes. Usado pelo hot reload via SQS.
func (s *Service) Reload(ctx context.Context) error {
	if s.loader == nil || s.source == "" {
		return errors.New("reload indisponível: fonte de configuração não definida")
	}
	s.logger.Info().Str("source", s.source).Msg("🔄 Hot Reload iniciado")

	cfg, err := s.loader(ctx, s.source)
	if err != nil {
		return fmt.Errorf("falha ao carregar nova configuração: %w", err)
	}

	processor := metrics.NewProcessor(cfg.Service.Metrics, s.provider, s.rules)
	if err := processor.Validate(); err != nil {
		return fmt.Errorf("métricas customizadas inválidas: %w", err)
	}
	if err := s.Seed(ctx, cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.processor = processor
	s.mu.Unlock()

	s.logger.Info().Msg("✅ Hot Reload concluído")
	return nil
}
