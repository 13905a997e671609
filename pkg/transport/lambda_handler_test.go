package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaHandler_RoutesThroughServer(t *testing.T) {
	env := newTestEnv(t)
	handler := NewLambdaHandler(env.srv)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/simulators",
		Headers:    map[string]string{HeaderUserID: "u1", "Content-Type": "application/json"},
		Body:       `{"name":"lambda-sensor","parameters":{"pressure":1.5}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	resp, err = handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/data/u1/lambda-sensor",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Equal(t, 1.5, out["data"].(map[string]interface{})["pressure"])
}

func TestLambdaHandler_QueryAndBase64Body(t *testing.T) {
	env := newTestEnv(t)
	handler := NewLambdaHandler(env.srv)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/api/failure-analytics/patterns/ramp",
		QueryStringParameters: map[string]string{"duration_seconds": "1", "sample_rate": "4"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.Contains(t, resp.Body, `"pattern_type":"ramp"`)

	body := base64.StdEncoding.EncodeToString([]byte(`{"history":[1,2,3],"threshold":10,"future_steps":2}`))
	resp, err = handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/api/failure-analytics/predict-failure",
		Body:            body,
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
}

func TestLambdaHandler_InvalidBase64(t *testing.T) {
	env := newTestEnv(t)
	resp, err := NewLambdaHandler(env.srv).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/api/simulators",
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
