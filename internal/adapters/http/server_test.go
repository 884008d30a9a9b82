package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/canopy"
	httpAdapter "github.com/aretw0/canopy/internal/adapters/http"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() domain.Config {
	return domain.Config{
		Levels:    2,
		InitialMu: map[int]float64{1: 0, 2: 1},
		InitialPi: map[int]float64{1: 1, 2: 1},
		Omega:     map[int]float64{1: -2, 2: -2},
		Kappa:     map[int]float64{1: 1},
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	evaluator, err := canopy.NewEvaluator(testConfig())
	require.NoError(t, err)
	return httpAdapter.NewHandler(testConfig(), evaluator)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, canopy.Version, body["version"])
}

func TestFilterEndpoint(t *testing.T) {
	obs := []*float64{ptr(0.2), nil, ptr(0.5)}
	rec := postJSON(t, newTestHandler(t), "/v1/filter", httpAdapter.FilterRequest{Observations: obs})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httpAdapter.FilterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Trajectory)
	assert.Equal(t, 3, resp.Trajectory.Len())
	assert.Equal(t, resp.Trajectory.TotalSurprise, resp.Surprise)

	// The null observation must come back as a missing step.
	assert.False(t, resp.Trajectory.Steps[1].Observed)
	assert.Zero(t, resp.Trajectory.Steps[1].Surprise)
}

func TestFilterEndpointWithParameterOverrides(t *testing.T) {
	handler := newTestHandler(t)
	obs := []*float64{ptr(0.2), ptr(0.5)}

	base := postJSON(t, handler, "/v1/filter", httpAdapter.FilterRequest{Observations: obs})
	require.Equal(t, http.StatusOK, base.Code)
	shifted := postJSON(t, handler, "/v1/filter", httpAdapter.FilterRequest{
		Observations: obs,
		Parameters:   domain.ParameterVector{1: {Omega: domain.NewParam(-6)}},
	})
	require.Equal(t, http.StatusOK, shifted.Code)

	var baseResp, shiftedResp httpAdapter.FilterResponse
	require.NoError(t, json.Unmarshal(base.Body.Bytes(), &baseResp))
	require.NoError(t, json.Unmarshal(shifted.Body.Bytes(), &shiftedResp))
	assert.NotEqual(t, baseResp.Surprise, shiftedResp.Surprise)
}

func TestFilterEndpointRejectsUnknownLevel(t *testing.T) {
	rec := postJSON(t, newTestHandler(t), "/v1/filter", httpAdapter.FilterRequest{
		Observations: []*float64{ptr(0.2)},
		Parameters:   domain.ParameterVector{9: {Omega: domain.NewParam(-1)}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterEndpointReportsNumericalFailure(t *testing.T) {
	rec := postJSON(t, newTestHandler(t), "/v1/filter", httpAdapter.FilterRequest{
		Observations: []*float64{ptr(0.2)},
		Parameters:   domain.ParameterVector{1: {Omega: domain.NewParam(1000)}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFilterEndpointRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/filter", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogLikelihoodEndpoint(t *testing.T) {
	rec := postJSON(t, newTestHandler(t), "/v1/loglikelihood", httpAdapter.LogLikelihoodRequest{
		Observations: []*float64{ptr(0.2), ptr(0.5)},
		Parameters:   domain.ParameterVector{1: {Omega: domain.NewParam(-3)}},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httpAdapter.LogLikelihoodResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.LogLikelihood)
}

func ptr(v float64) *float64 { return &v }
