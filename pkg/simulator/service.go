// Package simulator concentra as regras de negócio dos simuladores e dos
// cenários de falha: posse, validação, aplicação e liberação de cenários, e
// a resposta perturbada do endpoint de dados.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
	"github.com/raywall/fast-simulator-toolkit/pkg/observability"
	"github.com/raywall/fast-simulator-toolkit/pkg/rules"
	"github.com/raywall/fast-simulator-toolkit/pkg/store"
)

var (
	// ErrForbidden indica acesso a recurso de outro dono.
	ErrForbidden = errors.New("sem permissão para acessar este recurso")
	// ErrValidation indica entrada inválida (nome, parâmetros, condição).
	ErrValidation = errors.New("dados inválidos")
	// ErrScenarioInactive impede aplicar cenário desativado.
	ErrScenarioInactive = errors.New("cenários inativos não podem ser aplicados")
	// ErrScenarioApplied impede remover cenário em uso.
	ErrScenarioApplied = errors.New("cenário aplicado não pode ser removido; libere-o primeiro")
	// ErrNoAppliedScenario é devolvido por Release sem cenário aplicado.
	ErrNoAppliedScenario = errors.New("nenhum cenário de falha aplicado")
)

// InactiveMessage é o corpo devolvido por simuladores desativados.
const InactiveMessage = "Este simulador está desativado."

var (
	simulatorNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	parameterKeyPattern  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// ConfigLoader lê a configuração de uma fonte (arquivo, s3://, dynamodb://).
type ConfigLoader func(ctx context.Context, source string) (*config.ServiceConfig, error)

// Options agrupa as dependências do Service. Campos nulos recebem padrões:
// repositório em memória, motor semeado pelo relógio e métricas Noop.
type Options struct {
	Repository   store.Repository
	Engine       *failure.Engine
	Rules        *rules.RuleManager
	Metrics      metrics.Provider
	Processor    *metrics.Processor
	Logger       zerolog.Logger
	ConfigSource string
	Loader       ConfigLoader
	Clock        func() time.Time
}

// Service é seguro para uso concorrente. O motor é compartilhado por todas
// as requisições; o mutex protege apenas o que o Reload troca.
type Service struct {
	repo     store.Repository
	engine   *failure.Engine
	rules    *rules.RuleManager
	provider metrics.Provider
	logger   zerolog.Logger
	validate *validator.Validate
	source   string
	loader   ConfigLoader
	now      func() time.Time

	mu        sync.RWMutex
	processor *metrics.Processor
}

func New(opts Options) (*Service, error) {
	s := &Service{
		repo:      opts.Repository,
		engine:    opts.Engine,
		rules:     opts.Rules,
		provider:  opts.Metrics,
		processor: opts.Processor,
		logger:    opts.Logger,
		source:    opts.ConfigSource,
		loader:    opts.Loader,
		now:       opts.Clock,
		validate:  newRequestValidator(),
	}
	if s.repo == nil {
		s.repo = store.NewMemory()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.engine == nil {
		s.engine = failure.NewEngine(failure.WithClock(s.now))
	}
	if s.rules == nil {
		rm, err := rules.NewRuleManager()
		if err != nil {
			return nil, fmt.Errorf("falha ao iniciar RuleManager: %w", err)
		}
		s.rules = rm
	}
	if s.provider == nil {
		s.provider = &observability.NoopProvider{}
	}
	if s.processor == nil {
		s.processor = metrics.NewProcessor(config.MetricsConf{}, s.provider, s.rules)
	}
	return s, nil
}

func newRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("simname", func(fl validator.FieldLevel) bool {
		return simulatorNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Repository expõe o repositório para as camadas de leitura (GraphQL).
func (s *Service) Repository() store.Repository { return s.repo }

// Engine expõe o motor compartilhado.
func (s *Service) Engine() *failure.Engine { return s.engine }

// Now lê o relógio do serviço.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: campo '%s' falhou na regra '%s'", ErrValidation, e.Field(), e.Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func validateParameterKeys(params failure.ParameterMap) error {
	for k := range params {
		if !parameterKeyPattern.MatchString(k) {
			return fmt.Errorf("%w: nome de parâmetro inválido '%s'", ErrValidation, k)
		}
	}
	return nil
}

// ownedSimulator carrega o simulador e confere o dono.
func (s *Service) ownedSimulator(ctx context.Context, owner, id string) (*store.Simulator, error) {
	sim, err := s.repo.GetSimulator(ctx, id)
	if err != nil {
		return nil, err
	}
	if sim.Owner != owner {
		return nil, ErrForbidden
	}
	return sim, nil
}

func (s *Service) ownedScenario(ctx context.Context, owner, id string) (*store.Scenario, error) {
	sc, err := s.repo.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc.Owner != owner {
		return nil, ErrForbidden
	}
	return sc, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
