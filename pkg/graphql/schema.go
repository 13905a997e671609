package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// JSON transporta mapas de parâmetros e valores arbitrários sem tipagem.
var JSON = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Valor JSON arbitrário",
	Serialize:   func(v interface{}) interface{} { return v },
	ParseValue:  func(v interface{}) interface{} { return v },
	ParseLiteral: func(node ast.Value) interface{} {
		return parseLiteral(node)
	},
})

func parseLiteral(node ast.Value) interface{} {
	switch n := node.(type) {
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(n.Fields))
		for _, f := range n.Fields {
			out[f.Name.Value] = parseLiteral(f.Value)
		}
		return out
	case *ast.ListValue:
		out := make([]interface{}, len(n.Values))
		for i, v := range n.Values {
			out[i] = parseLiteral(v)
		}
		return out
	case *ast.IntValue:
		return graphql.Float.ParseLiteral(n)
	case *ast.FloatValue:
		return graphql.Float.ParseLiteral(n)
	case *ast.BooleanValue:
		return n.Value
	case *ast.StringValue:
		return n.Value
	default:
		return nil
	}
}

var simulatorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Simulator",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user_id":    &graphql.Field{Type: graphql.String},
		"name":       &graphql.Field{Type: graphql.String},
		"parameters": &graphql.Field{Type: JSON},
		"is_active":  &graphql.Field{Type: graphql.Boolean},
		"created_at": &graphql.Field{Type: graphql.String},
		"updated_at": &graphql.Field{Type: graphql.String},
	},
})

var scenarioType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FailureScenario",
	Fields: graphql.Fields{
		"id":                 &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user_id":            &graphql.Field{Type: graphql.String},
		"simulator_id":       &graphql.Field{Type: graphql.String},
		"name":               &graphql.Field{Type: graphql.String},
		"description":        &graphql.Field{Type: graphql.String},
		"failure_parameters": &graphql.Field{Type: JSON},
		"advanced_config":    &graphql.Field{Type: JSON},
		"condition":          &graphql.Field{Type: graphql.String},
		"is_active":          &graphql.Field{Type: graphql.Boolean},
		"is_applied":         &graphql.Field{Type: graphql.Boolean},
		"applied_at":         &graphql.Field{Type: graphql.String},
		"created_at":         &graphql.Field{Type: graphql.String},
	},
})

var dataType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SimulatorData",
	Fields: graphql.Fields{
		"simulator_name":     &graphql.Field{Type: graphql.String},
		"user_id":            &graphql.Field{Type: graphql.String},
		"data":               &graphql.Field{Type: JSON},
		"message":            &graphql.Field{Type: graphql.String},
		"active_scenario_id": &graphql.Field{Type: graphql.String},
		"timestamp":          &graphql.Field{Type: graphql.String},
	},
})

var descriptorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "TypeDescriptor",
	Fields: graphql.Fields{
		"type":        &graphql.Field{Type: graphql.String},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"parameters":  &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

var statisticsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Statistics",
	Fields: graphql.Fields{
		"mean":     &graphql.Field{Type: graphql.Float},
		"std":      &graphql.Field{Type: graphql.Float},
		"min":      &graphql.Field{Type: graphql.Float},
		"max":      &graphql.Field{Type: graphql.Float},
		"median":   &graphql.Field{Type: graphql.Float},
		"q25":      &graphql.Field{Type: graphql.Float},
		"q75":      &graphql.Field{Type: graphql.Float},
		"variance": &graphql.Field{Type: graphql.Float},
		"skewness": &graphql.Field{Type: graphql.Float},
		"kurtosis": &graphql.Field{Type: graphql.Float},
	},
})

var patternType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Pattern",
	Fields: graphql.Fields{
		"pattern_type":     &graphql.Field{Type: graphql.String},
		"base_value":       &graphql.Field{Type: graphql.Float},
		"duration_seconds": &graphql.Field{Type: graphql.Int},
		"sample_rate":      &graphql.Field{Type: graphql.Int},
		"time":             &graphql.Field{Type: graphql.NewList(graphql.Float)},
		"values":           &graphql.Field{Type: graphql.NewList(graphql.Float)},
		"statistics":       &graphql.Field{Type: statisticsType},
	},
})

var predictionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Prediction",
	Fields: graphql.Fields{
		"history_length":      &graphql.Field{Type: graphql.Int},
		"threshold":           &graphql.Field{Type: graphql.Float},
		"future_steps":        &graphql.Field{Type: graphql.Int},
		"failure_probability": &graphql.Field{Type: graphql.Float},
		"predicted_values":    &graphql.Field{Type: graphql.NewList(graphql.Float)},
		"trend":               &graphql.Field{Type: JSON},
		"statistics":          &graphql.Field{Type: statisticsType},
	},
})

var historyType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PerturbationRecord",
	Fields: graphql.Fields{
		"timestamp":       &graphql.Field{Type: graphql.String},
		"elapsed_seconds": &graphql.Field{Type: graphql.Float},
		"parameter":       &graphql.Field{Type: graphql.String},
		"failure_type":    &graphql.Field{Type: graphql.String},
		"noise":           &graphql.Field{Type: graphql.String},
		"clamped":         &graphql.Field{Type: graphql.Boolean},
		"original":        &graphql.Field{Type: JSON},
		"result":          &graphql.Field{Type: JSON},
	},
})

var applyResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ScenarioChange",
	Fields: graphql.Fields{
		"message":       &graphql.Field{Type: graphql.String},
		"simulator_id":  &graphql.Field{Type: graphql.String},
		"scenario_id":   &graphql.Field{Type: graphql.String},
		"scenario_name": &graphql.Field{Type: graphql.String},
		"applied_at":    &graphql.Field{Type: graphql.String},
	},
})
