package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentmarket-console/internal/console/handler"
	"github.com/xela07ax/agentmarket-console/internal/console/service"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/engine"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"github.com/xela07ax/agentmarket-console/internal/node"
	"github.com/xela07ax/agentmarket-console/internal/operation"
	"go.uber.org/zap"
)

type okExecutor struct{}

func (okExecutor) Execute(context.Context, operation.Operation) (*node.Outcome, error) {
	return &node.Outcome{AgentID: "agent_1"}, nil
}

type rejectAll struct{}

func (rejectAll) VerifyToken(string) (*domain.CustomClaims, error) {
	return nil, errors.New("invalid token")
}

func newTestServer(t *testing.T, limits infra.LimitsConfig, validator *rejectAll) (*ConsoleServer, *infra.Metrics) {
	t.Helper()
	logger := zap.NewNop()
	metrics := infra.NewMetrics(nil)

	c := engine.NewController(engine.Surface{Name: engine.SurfaceDashboard}, false, metrics, logger)
	c.Start(context.Background())
	hub := engine.NewHub(domain.Disconnected, c)

	ops := service.NewOperationService(okExecutor{}, nil, nil, logger)
	h := Handlers{
		Operations: handler.NewOperationHandler(ops, logger),
		Surfaces:   handler.NewSurfaceHandler(hub),
		Agents:     handler.NewAgentHandler(nil, domain.Disconnected, logger),
		Onboarding: handler.NewOnboardingHandler(service.NewOnboardingService(nil)),
		Journal:    handler.NewJournalHandler(service.NewJournalService(nil)),
	}

	cfg := &infra.Config{Limits: limits}
	if validator != nil {
		return NewConsoleServer(cfg, logger, metrics, validator, h), metrics
	}
	return NewConsoleServer(cfg, logger, metrics, nil, h), metrics
}

func post(s http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const transferBody = `{"operation":{"TransferTokens":{"to_agent":"agent_2","amount":1}}}`

func TestWriteRoutesRateLimited(t *testing.T) {
	s, metrics := newTestServer(t, infra.LimitsConfig{WriteRPS: 0.001, WriteBurst: 2}, nil)

	assert.Equal(t, http.StatusOK, post(s, "/api/execute-operation", transferBody).Code)
	assert.Equal(t, http.StatusOK, post(s, "/api/execute-operation", transferBody).Code)

	rec := post(s, "/api/execute-operation", transferBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimited))

	// Чтение лимитом не ограничено
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/connection", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteRoutesRequireTokenWhenAuthEnabled(t *testing.T) {
	s, _ := newTestServer(t, infra.LimitsConfig{}, &rejectAll{})

	assert.Equal(t, http.StatusUnauthorized, post(s, "/api/agents", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(s, "/api/execute-operation", transferBody).Code)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/surfaces/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes(t *testing.T) {
	s, _ := newTestServer(t, infra.LimitsConfig{}, nil)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/connection", http.StatusOK},
		{http.MethodGet, "/api/v1/surfaces", http.StatusOK},
		{http.MethodGet, "/api/v1/surfaces/dashboard", http.StatusOK},
		{http.MethodPost, "/api/v1/surfaces/dashboard/retry", http.StatusConflict},
		{http.MethodGet, "/api/v1/dashboard", http.StatusOK},
		{http.MethodGet, "/api/v1/agents?strategy=Oracle", http.StatusConflict},
		{http.MethodGet, "/api/v1/operations", http.StatusOK},
		{http.MethodGet, "/api/v1/onboarding/browser-1", http.StatusOK},
		{http.MethodPost, "/auth/token", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.want, rec.Code)
		})
	}
}
