package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimit — общий token bucket на все маршруты записи.
// Форвардер сам не держит backpressure, поэтому лимит стоит на входе.
func RateLimit(cfg infra.LimitsConfig, metrics *infra.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := rate.Limit(cfg.WriteRPS)
	if cfg.WriteRPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.WriteBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metrics.RateLimited.Inc()
				logger.Warn("write rate limited",
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
