package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Variáveis visíveis nas expressões.
const (
	VarParams    = "params"    // Parâmetros do simulador (antes da falha)
	VarResponse  = "response"  // Resposta já perturbada
	VarElapsed   = "elapsed"   // Segundos desde o início do motor
	VarSimulator = "simulator" // Metadados do simulador (id, name, owner, active)
	VarScenario  = "scenario"  // Metadados do cenário aplicado
	VarNow       = "now"       // Timestamp da requisição
)

// RuleManager gerencia a compilação e avaliação de expressões CEL.
// Programas compilados ficam em cache por expressão.
type RuleManager struct {
	env      *cel.Env
	programs sync.Map // map[string]cel.Program
}

// NewRuleManager inicializa o ambiente CEL com as variáveis padrão esperadas.
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarParams, cel.DynType),
		cel.Variable(VarResponse, cel.DynType),
		cel.Variable(VarElapsed, cel.DoubleType),
		cel.Variable(VarSimulator, cel.DynType),
		cel.Variable(VarScenario, cel.DynType),
		cel.Variable(VarNow, cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("erro fatal CEL init: %w", err)
	}

	return &RuleManager{env: env}, nil
}

// Check compila a expressão sem avaliá-la (validação de cenários e métricas).
func (rm *RuleManager) Check(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := rm.program(expression)
	return err
}

// EvaluateBool processa condições (deve retornar true/false).
func (rm *RuleManager) EvaluateBool(expression string, ctx map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil // Expressão vazia = aprova
	}

	out, err := rm.eval(expression, ctx)
	if err != nil {
		return false, err
	}

	if val, ok := out.(bool); ok {
		return val, nil
	}
	return false, fmt.Errorf("resultado de '%s' não é booleano", expression)
}

// EvaluateValue processa expressões de valor (retorna um valor dinâmico).
func (rm *RuleManager) EvaluateValue(expression string, ctx map[string]interface{}) (interface{}, error) {
	if expression == "" {
		return nil, nil
	}
	return rm.eval(expression, ctx)
}

func (rm *RuleManager) eval(expression string, ctx map[string]interface{}) (interface{}, error) {
	prg, err := rm.program(expression)
	if err != nil {
		return nil, err
	}

	out, _, err := prg.Eval(withDefaults(ctx))
	if err != nil {
		return nil, fmt.Errorf("erro execução CEL: %w", err)
	}
	return out.Value(), nil
}

func (rm *RuleManager) program(expr string) (cel.Program, error) {
	if prg, ok := rm.programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}

	ast, issues := rm.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("erro de compilação CEL '%s': %w", expr, issues.Err())
	}
	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar programa CEL: %w", err)
	}

	rm.programs.Store(expr, prg)
	return prg, nil
}

// withDefaults garante que variáveis ausentes existam (mapas vazios e elapsed 0).
func withDefaults(ctx map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, 6)
	for _, k := range []string{VarParams, VarResponse, VarSimulator, VarScenario} {
		out[k] = map[string]interface{}{}
	}
	out[VarElapsed] = 0.0
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
