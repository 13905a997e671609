package graphql

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/raywall/fast-simulator-toolkit/pkg/analytics"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/history"
	"github.com/raywall/fast-simulator-toolkit/pkg/simulator"
)

// ErrMissingOwner é devolvido por campos que dependem do dono da requisição.
var ErrMissingOwner = errors.New("cabeçalho X-User-ID obrigatório")

type ownerKey struct{}

// WithOwner anexa o dono da requisição ao contexto usado pelos resolvers.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

func ownerFrom(ctx context.Context) (string, error) {
	owner, _ := ctx.Value(ownerKey{}).(string)
	if owner == "" {
		return "", ErrMissingOwner
	}
	return owner, nil
}

// Engine expõe simuladores, cenários e análises por um schema GraphQL fixo.
type Engine struct {
	Schema  graphql.Schema
	service *simulator.Service
	history history.Reader
}

// NewEngine monta o schema. hist pode ser nil; nesse caso o campo history
// devolve lista vazia.
func NewEngine(svc *simulator.Service, hist history.Reader) (*Engine, error) {
	e := &Engine{service: svc, history: hist}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    e.queryType(),
		Mutation: e.mutationType(),
	})
	if err != nil {
		return nil, err
	}
	e.Schema = schema
	return e, nil
}

func (e *Engine) Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         e.Schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
}

func (e *Engine) queryType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"simulators": &graphql.Field{
				Type: graphql.NewList(simulatorType),
				Args: graphql.FieldConfigArgument{
					"skip":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: e.owned(func(p graphql.ResolveParams, owner string) (interface{}, error) {
					return e.service.ListSimulators(p.Context, owner, p.Args["skip"].(int), p.Args["limit"].(int))
				}),
			},
			"simulator": &graphql.Field{
				Type: simulatorType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: e.owned(func(p graphql.ResolveParams, owner string) (interface{}, error) {
					return e.service.GetSimulator(p.Context, owner, p.Args["id"].(string))
				}),
			},
			"simulatorData": &graphql.Field{
				Type: dataType,
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: async(func(p graphql.ResolveParams) (interface{}, error) {
					return e.service.GetSimulatorData(p.Context, p.Args["user_id"].(string), p.Args["name"].(string), e.service.Now())
				}),
			},
			"scenarios": &graphql.Field{
				Type: graphql.NewList(scenarioType),
				Args: graphql.FieldConfigArgument{
					"simulator_id": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: e.owned(func(p graphql.ResolveParams, owner string) (interface{}, error) {
					if id, ok := p.Args["simulator_id"].(string); ok && id != "" {
						return e.service.ListScenariosBySimulator(p.Context, owner, id)
					}
					return e.service.ListScenarios(p.Context, owner, 0, 0)
				}),
			},
			"failureTypes": &graphql.Field{
				Type: graphql.NewList(descriptorType),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return toJSONValue(failure.FailureCatalog())
				},
			},
			"noiseTypes": &graphql.Field{
				Type: graphql.NewList(descriptorType),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return toJSONValue(failure.NoiseCatalog())
				},
			},
			"pattern": &graphql.Field{
				Type: patternType,
				Args: graphql.FieldConfigArgument{
					"type":             &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"base_value":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 100.0},
					"duration_seconds": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 60},
					"sample_rate":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: async(func(p graphql.ResolveParams) (interface{}, error) {
					return analytics.PatternReport(p.Args["base_value"].(float64), p.Args["type"].(string),
						p.Args["duration_seconds"].(int), p.Args["sample_rate"].(int), e.service.Engine().Random())
				}),
			},
			"statistics": &graphql.Field{
				Type: statisticsType,
				Args: graphql.FieldConfigArgument{
					"values": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Float)))},
				},
				Resolve: async(func(p graphql.ResolveParams) (interface{}, error) {
					return analytics.Analyze(floats(p.Args["values"])), nil
				}),
			},
			"predict": &graphql.Field{
				Type: predictionType,
				Args: graphql.FieldConfigArgument{
					"history":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Float)))},
					"threshold":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"future_steps": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: async(func(p graphql.ResolveParams) (interface{}, error) {
					return analytics.Forecast(floats(p.Args["history"]), p.Args["threshold"].(float64), p.Args["future_steps"].(int))
				}),
			},
			"history": &graphql.Field{
				Type: graphql.NewList(historyType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: async(func(p graphql.ResolveParams) (interface{}, error) {
					if e.history == nil {
						return []interface{}{}, nil
					}
					return e.history.Recent(p.Context, p.Args["limit"].(int))
				}),
			},
		},
	})
}

func (e *Engine) mutationType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"applyScenario": &graphql.Field{
				Type: applyResultType,
				Args: graphql.FieldConfigArgument{
					"simulator_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"scenario_id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: e.owned(func(p graphql.ResolveParams, owner string) (interface{}, error) {
					return e.service.ApplyScenario(p.Context, owner, p.Args["scenario_id"].(string), p.Args["simulator_id"].(string))
				}),
			},
			"releaseScenario": &graphql.Field{
				Type: applyResultType,
				Args: graphql.FieldConfigArgument{
					"simulator_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: e.owned(func(p graphql.ResolveParams, owner string) (interface{}, error) {
					return e.service.ReleaseScenario(p.Context, owner, p.Args["simulator_id"].(string))
				}),
			},
			"toggleSimulator": &graphql.Field{
				Type: simulatorType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: e.owned(func(p graphql.ResolveParams, owner string) (interface{}, error) {
					return e.service.ToggleSimulator(p.Context, owner, p.Args["id"].(string))
				}),
			},
		},
	})
}
