package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ServiceConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ServiceConfig) error {
	// 1. Métricas customizadas: IDs únicos e regras apontando para definições existentes
	defs := make(map[string]bool)
	for _, d := range cfg.Service.Metrics.CustomDefinitions {
		if defs[d.ID] {
			return fmt.Errorf("métrica customizada duplicada: '%s'", d.ID)
		}
		defs[d.ID] = true
	}
	for _, r := range cfg.Service.Metrics.Rules {
		if !defs[r.MetricID] {
			return fmt.Errorf("regra de métrica referencia definição inexistente: '%s'", r.MetricID)
		}
	}

	// 2. Simuladores semeados: (owner, name) único
	seeded := make(map[string]bool)
	for _, s := range cfg.Simulators {
		key := s.Owner + "/" + s.Name
		if seeded[key] {
			return fmt.Errorf("simulador duplicado na configuração: '%s'", key)
		}
		seeded[key] = true
	}

	// 3. Cenários precisam apontar para um simulador semeado do mesmo dono
	for _, sc := range cfg.Scenarios {
		if !seeded[sc.Owner+"/"+sc.Simulator] {
			return fmt.Errorf("cenário '%s' referencia simulador inexistente: '%s'", sc.Name, sc.Simulator)
		}
	}

	// 4. Histórico no Redis exige o Redis habilitado
	if cfg.History.Redis && !cfg.Redis.Enabled {
		return fmt.Errorf("history.redis requer 'redis.enabled' igual a true")
	}

	return nil
}
