package graphql

import (
	"encoding/json"

	"github.com/graphql-go/graphql"
)

// async executa o resolver em uma goroutine e devolve um thunk, permitindo
// que campos irmãos sejam resolvidos em paralelo.
func async(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		type outcome struct {
			val interface{}
			err error
		}
		ch := make(chan outcome, 1)

		go func() {
			v, err := fn(p)
			if err != nil {
				ch <- outcome{err: err}
				return
			}
			v, err = toJSONValue(v)
			ch <- outcome{val: v, err: err}
		}()

		return func() (interface{}, error) {
			o := <-ch
			return o.val, o.err
		}, nil
	}
}

// owned exige o dono no contexto antes de delegar.
func (e *Engine) owned(fn func(graphql.ResolveParams, string) (interface{}, error)) graphql.FieldResolveFn {
	return async(func(p graphql.ResolveParams) (interface{}, error) {
		owner, err := ownerFrom(p.Context)
		if err != nil {
			return nil, err
		}
		return fn(p, owner)
	})
}

// toJSONValue converte structs do domínio para a forma JSON (mapas e
// listas), cujos nomes de campo coincidem com o schema.
func toJSONValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func floats(v interface{}) []float64 {
	list, _ := v.([]interface{})
	out := make([]float64, 0, len(list))
	for _, item := range list {
		if f, ok := item.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}
