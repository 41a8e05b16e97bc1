package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace_refunds/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
)

func TestHealthHandler(t *testing.T) {
	healthcheck := health.NewServer()
	gwmux := newGatewayMux(nil)
	require.NoError(t, registerHealthHandler(gwmux, healthcheck))

	rec := httptest.NewRecorder()
	gwmux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SERVING", body["status"])

	healthcheck.Shutdown()

	rec = httptest.NewRecorder()
	gwmux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGatewayMux_UnknownRouteUsesErrorEnvelope(t *testing.T) {
	gwmux := newGatewayMux(map[string]struct{}{"Idempotency-Key": {}})

	rec := httptest.NewRecorder()
	gwmux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestNewApp_RegistersConsoleRoutes(t *testing.T) {
	register := func(mux *http.ServeMux) {
		mux.HandleFunc("GET "+apiPrefix+"/refunds", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}

	a, cleanup, err := NewApp(0, zap.NewNop(), register, nil, nil, nil)
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, apiPrefix+"/refunds", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
