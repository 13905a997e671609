package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/rules"
)

// Processor gerencia a avaliação e envio das métricas customizadas.
type Processor struct {
	definitions map[string]MetricDefinition
	rules       []config.MetricRegistrationRule
	provider    Provider
	ruleManager *rules.RuleManager
}

// NewProcessor cria um processador linkando IDs de configuração aos seus tipos reais.
func NewProcessor(conf config.MetricsConf, provider Provider, rm *rules.RuleManager) *Processor {
	defs := make(map[string]MetricDefinition)
	for _, d := range conf.CustomDefinitions {
		defs[d.ID] = MetricDefinition{
			Name: d.Name,
			Type: MetricType(d.Type),
		}
	}

	return &Processor{
		definitions: defs,
		rules:       conf.Rules,
		provider:    provider,
		ruleManager: rm,
	}
}

// Provider devolve o provedor em uso.
func (p *Processor) Provider() Provider { return p.provider }

// Validate compila todas as expressões das regras configuradas.
func (p *Processor) Validate() error {
	for _, rule := range p.rules {
		if err := p.ruleManager.Check(rule.Value); err != nil {
			return fmt.Errorf("métrica %s: %w", rule.MetricID, err)
		}
		for k, expr := range rule.Tags {
			if err := p.ruleManager.Check(expr); err != nil {
				return fmt.Errorf("tag %s da métrica %s: %w", k, rule.MetricID, err)
			}
		}
	}
	return nil
}

// Observe avalia todas as regras configuradas. Uma regra com erro não impede as demais.
func (p *Processor) Observe(ctx map[string]interface{}) error {
	var errs []error
	for _, rule := range p.rules {
		if err := p.processSingleRule(rule, ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessRules avalia e registra uma lista de regras de métricas, parando no primeiro erro.
func (p *Processor) ProcessRules(rules []config.MetricRegistrationRule, ctx map[string]interface{}) error {
	for _, rule := range rules {
		if err := p.processSingleRule(rule, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processSingleRule(rule config.MetricRegistrationRule, ctx map[string]interface{}) error {
	// 1. Buscar definição da métrica (Nome e Tipo)
	def, exists := p.definitions[rule.MetricID]
	if !exists {
		return fmt.Errorf("métrica não definida: %s", rule.MetricID)
	}

	// 2. Avaliar o Valor (CEL)
	rawVal, err := p.ruleManager.EvaluateValue(rule.Value, ctx)
	if err != nil {
		return fmt.Errorf("erro ao avaliar valor da métrica %s: %w", rule.MetricID, err)
	}

	val, err := toFloat64(rawVal)
	if err != nil {
		return fmt.Errorf("valor da métrica %s inválido: %w", rule.MetricID, err)
	}

	// 3. Avaliar Tags (CEL), em ordem estável
	keys := make([]string, 0, len(rule.Tags))
	for k := range rule.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	finalTags := make([]string, 0, len(keys))
	for _, k := range keys {
		tagVal, err := p.ruleManager.EvaluateValue(rule.Tags[k], ctx)
		if err != nil {
			return fmt.Errorf("erro ao avaliar tag %s da métrica %s: %w", k, rule.MetricID, err)
		}
		finalTags = append(finalTags, fmt.Sprintf("%s:%v", k, tagVal))
	}

	// 4. Enviar para o Provider
	switch def.Type {
	case TypeCount:
		return p.provider.Count(def.Name, val, finalTags)
	case TypeGauge:
		return p.provider.Gauge(def.Name, val, finalTags)
	case TypeHistogram:
		return p.provider.Histogram(def.Name, val, finalTags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", def.Type)
	}
}

// Helper para converter retorno do CEL (int, uint, float, bool, string) para float64
func toFloat64(v interface{}) (float64, error) {
	switch i := v.(type) {
	case float64:
		return i, nil
	case float32:
		return float64(i), nil
	case int:
		return float64(i), nil
	case int64:
		return float64(i), nil
	case uint64:
		return float64(i), nil
	case bool:
		if i {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(i, 64)
	default:
		return 0, fmt.Errorf("tipo numérico não suportado: %T", v)
	}
}
