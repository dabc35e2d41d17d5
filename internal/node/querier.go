package node

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/machinebox/graphql"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"go.uber.org/zap"
)

// DefaultTransactionsLimit — сколько последних транзакций берем, если лимит не задан.
const DefaultTransactionsLimit = 10

// Querier выполняет read-only GraphQL запросы к ноде.
// Без кэша и батчинга: каждый вызов независим и безопасен для конкурентного использования.
type Querier struct {
	client   *graphql.Client
	cb       *gobreaker.CircuitBreaker
	validate *validator.Validate
	metrics  *infra.Metrics
	logger   *zap.Logger
}

func NewQuerier(endpoint string, httpClient *http.Client, metrics *infra.Metrics, logger *zap.Logger) *Querier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	logger = logger.Named("querier")

	client := graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	client.Log = func(s string) { logger.Debug(s) }

	q := &Querier{
		client:   client,
		validate: newValidator(),
		metrics:  metrics,
		logger:   logger,
	}

	// Предохранитель: если нода лежит, не долбим ее каждые 5 секунд с каждой поверхности
	q.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "node-graphql",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return q
}

// run — общий путь запроса: breaker -> transport -> schema validation.
// Любой сбой возвращается как QueryError.
func (q *Querier) run(ctx context.Context, name, doc string, vars map[string]any, out any) error {
	req := graphql.NewRequest(doc)
	for k, v := range vars {
		req.Var(k, v)
	}

	start := time.Now()
	_, err := q.cb.Execute(func() (interface{}, error) {
		if err := q.client.Run(ctx, req, out); err != nil {
			return nil, err
		}
		return nil, q.validate.Struct(out)
	})
	q.metrics.QueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		q.metrics.QueryErrors.WithLabelValues(name).Inc()
		q.logger.Warn("graphql query failed", zap.String("query", name), zap.Error(err))
		return &domain.QueryError{Query: name, Err: err}
	}
	return nil
}

func (q *Querier) MarketplaceStats(ctx context.Context) (*domain.MarketplaceStats, error) {
	var resp statsResponse
	if err := q.run(ctx, "marketplaceStats", queryMarketplaceStats, nil, &resp); err != nil {
		return nil, err
	}
	return resp.MarketplaceStats.toDomain(), nil
}

func (q *Querier) Agents(ctx context.Context) ([]domain.Agent, error) {
	var resp agentsResponse
	if err := q.run(ctx, "agents", queryAgents, nil, &resp); err != nil {
		return nil, err
	}
	return agentsToDomain(resp.Agents), nil
}

func (q *Querier) ActiveAgents(ctx context.Context) ([]domain.Agent, error) {
	var resp activeAgentsResponse
	if err := q.run(ctx, "activeAgents", queryActiveAgents, nil, &resp); err != nil {
		return nil, err
	}
	return agentsToDomain(resp.ActiveAgents), nil
}

func (q *Querier) AgentsByStrategy(ctx context.Context, strategy domain.StrategyKind) ([]domain.Agent, error) {
	if !strategy.Valid() {
		return nil, &domain.ValidationError{Field: "strategyType", Reason: "unknown strategy " + string(strategy)}
	}
	var resp agentsByStrategyResponse
	vars := map[string]any{"strategyType": string(strategy)}
	if err := q.run(ctx, "agentsByStrategy", queryAgentsByStrategy, vars, &resp); err != nil {
		return nil, err
	}
	return agentsToDomain(resp.AgentsByStrategy), nil
}

// Transactions возвращает limit последних транзакций; limit <= 0 означает DefaultTransactionsLimit.
func (q *Querier) Transactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionsLimit
	}
	var resp transactionsResponse
	if err := q.run(ctx, "transactions", queryTransactions, map[string]any{"limit": limit}, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(resp.Transactions))
	for i := range resp.Transactions {
		out = append(out, resp.Transactions[i].toDomain())
	}
	return out, nil
}

func (q *Querier) PendingRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	var resp pendingRequestsResponse
	if err := q.run(ctx, "pendingRequests", queryPendingRequests, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.ServiceRequest, 0, len(resp.PendingRequests))
	for i := range resp.PendingRequests {
		out = append(out, resp.PendingRequests[i].toDomain())
	}
	return out, nil
}

func (q *Querier) MarketListings(ctx context.Context) ([]domain.MarketListing, error) {
	var resp listingsResponse
	if err := q.run(ctx, "marketListings", queryMarketListings, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.MarketListing, 0, len(resp.MarketListings))
	for i := range resp.MarketListings {
		out = append(out, resp.MarketListings[i].toDomain())
	}
	return out, nil
}

// Ping проверяет, что GraphQL endpoint отвечает. На ConnectionState не влияет.
func (q *Querier) Ping(ctx context.Context) error {
	var resp struct {
		Typename *string `json:"__typename" validate:"required"`
	}
	return q.run(ctx, "ping", queryPing, nil, &resp)
}
