package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBool(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	data := map[string]interface{}{
		VarParams:  map[string]interface{}{"temperature": 80.0, "status": "ok"},
		VarElapsed: 120.0,
	}

	// Cenário 1: Sucesso
	ok, err := rm.EvaluateBool("params.temperature > 50.0 && elapsed >= 60.0", data)
	require.NoError(t, err)
	assert.True(t, ok)

	// Cenário 2: Falha
	ok, err = rm.EvaluateBool("params.status == 'down'", data)
	require.NoError(t, err)
	assert.False(t, ok)

	// Cenário 3: Expressão vazia aprova
	ok, err = rm.EvaluateBool("", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// Cenário 4: Resultado não booleano
	_, err = rm.EvaluateBool("elapsed + 1.0", data)
	assert.Error(t, err)
}

func TestEvaluateBool_Timestamp(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	ok, err := rm.EvaluateBool("now.getHours('UTC') >= 12", map[string]interface{}{
		VarNow: time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateValue(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	res, err := rm.EvaluateValue("response.level * 2", map[string]interface{}{
		VarResponse: map[string]interface{}{"level": 100},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), res)

	res, err = rm.EvaluateValue("", nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCheck(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	assert.NoError(t, rm.Check("params.x > 1.0"))
	assert.NoError(t, rm.Check(""))
	assert.Error(t, rm.Check("params.x >"))
	assert.Error(t, rm.Check("unknown_var == 1"))
}
