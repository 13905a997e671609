package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPatternCmd(t *testing.T) {
	out, err := execute(t, "", "pattern", "ramp", "--base", "10", "--duration", "2", "--rate", "2")
	require.NoError(t, err)

	var res struct {
		PatternType string    `json:"pattern_type"`
		Values      []float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "ramp", res.PatternType)
	assert.Len(t, res.Values, 4)
}

func TestPatternCmd_RequiresType(t *testing.T) {
	_, err := execute(t, "", "pattern")
	assert.Error(t, err)
}

func TestAnalyzeCmd(t *testing.T) {
	out, err := execute(t, "", "analyze", "--values", "1,2,3,4")
	require.NoError(t, err)
	assert.Contains(t, out, `"mean": 2.5`)

	_, err = execute(t, "", "analyze")
	assert.Error(t, err)
}

func TestPredictCmd(t *testing.T) {
	out, err := execute(t, "", "predict", "--history", "1,2,3", "--threshold", "3.5", "--steps", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"failure_probability": 1`)

	_, err = execute(t, "", "predict", "--history", "1", "--threshold", "3")
	assert.Error(t, err)
}

func TestApplyCmd(t *testing.T) {
	params := writeFile(t, "params.json", `{"temperature": 20, "status": "ok"}`)
	scenario := `{
		"failure_parameters": {"status": "degraded"},
		"advanced_config": {"parameters": {"temperature": {"failure_type": "sudden", "failure_value": 95}}}
	}`

	out, err := execute(t, scenario, "apply", "--params", params, "--scenario", "-")
	require.NoError(t, err)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 95.0, res["temperature"])
	assert.Equal(t, "degraded", res["status"])
}

func TestApplyCmd_InvalidScenario(t *testing.T) {
	params := writeFile(t, "params.json", `{"x": 1}`)
	_, err := execute(t, `{"advanced_config": {"probability": 3}}`, "apply", "--params", params, "--scenario", "-")
	assert.Error(t, err)
}

func TestSimulateCmd(t *testing.T) {
	params := writeFile(t, "params.json", `{"load": 50}`)
	adv := writeFile(t, "adv.json", `{"parameters": {"load": {"failure_type": "drift", "drift_rate": 0.5}}}`)

	out, err := execute(t, "", "simulate", "--params", params, "--advanced", adv, "--duration", "3")
	require.NoError(t, err)

	var res struct {
		TimeSeries map[string][]float64 `json:"time_series"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []float64{50, 75, 100}, res.TimeSeries["load"])
}

func TestTypesCmd(t *testing.T) {
	out, err := execute(t, "", "types")
	require.NoError(t, err)
	assert.Contains(t, out, "random_walk")
	assert.Contains(t, out, "poisson")
}

func TestValidateCmd(t *testing.T) {
	path := writeFile(t, "service.yaml", `
version: "1.0"
service:
  name: "cli"
  runtime: "lambda"
  timeout: "1s"
simulators:
  - owner: "u1"
    name: "s"
    parameters: {x: 1}
`)
	out, err := execute(t, "", "validate", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 simuladores")

	bad := writeFile(t, "bad.yaml", `service: {}`)
	_, err = execute(t, "", "validate", "--file", bad)
	assert.Error(t, err)
}
