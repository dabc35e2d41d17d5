package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"go.uber.org/zap"
)

// AgentQuerier — выборки агентов из Query Client для фильтров маркетплейса.
type AgentQuerier interface {
	Agents(ctx context.Context) ([]domain.Agent, error)
	ActiveAgents(ctx context.Context) ([]domain.Agent, error)
	AgentsByStrategy(ctx context.Context, strategy domain.StrategyKind) ([]domain.Agent, error)
}

type AgentHandler struct {
	querier   AgentQuerier
	connected bool
	logger    *zap.Logger
	now       func() time.Time
}

func NewAgentHandler(q AgentQuerier, connection domain.ConnectionState, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		querier:   q,
		connected: connection == domain.Connected,
		logger:    logger.Named("agents-api"),
		now:       time.Now,
	}
}

type agentsResponse struct {
	Agents      []domain.AgentView `json:"agents"`
	Count       int                `json:"count"`
	ActiveCount int                `json:"activeCount"`
}

// List — GET /api/v1/agents?strategy=Trading&active=true.
// strategy идет в agentsByStrategy, active=true без strategy — в activeAgents,
// оба сразу — выборка по стратегии с локальным отбором активных.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.connected {
		writeError(w, http.StatusConflict, "graphql endpoint not configured")
		return
	}

	q := r.URL.Query()
	strategy := domain.StrategyKind(q.Get("strategy"))
	if strategy != "" && !strategy.Valid() {
		writeError(w, http.StatusBadRequest, (&domain.ValidationError{Field: "strategy", Reason: "unknown strategy " + string(strategy)}).Error())
		return
	}
	onlyActive := false
	if v := q.Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, (&domain.ValidationError{Field: "active", Reason: "must be a boolean"}).Error())
			return
		}
		onlyActive = b
	}

	var (
		agents []domain.Agent
		err    error
	)
	switch {
	case strategy != "":
		agents, err = h.querier.AgentsByStrategy(r.Context(), strategy)
	case onlyActive:
		agents, err = h.querier.ActiveAgents(r.Context())
	default:
		agents, err = h.querier.Agents(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := agentsResponse{Agents: make([]domain.AgentView, 0, len(agents))}
	now := h.now()
	for _, a := range agents {
		if onlyActive && !a.IsActive {
			continue
		}
		if a.IsActive {
			resp.ActiveCount++
		}
		resp.Agents = append(resp.Agents, domain.NewAgentView(a, now))
	}
	resp.Count = len(resp.Agents)
	writeJSON(w, http.StatusOK, resp)
}

func (h *AgentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *domain.ValidationError
		qErr *domain.QueryError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &qErr):
		h.logger.Warn("agents query failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("query", qErr.Query),
			zap.Error(err))
		// Та же семантика, что у Error-поверхности: можно повторить
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "retryable": true})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
