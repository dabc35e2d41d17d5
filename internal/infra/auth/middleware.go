package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xela07ax/agentmarket-console/internal/domain"
	"go.uber.org/zap"
)

type TokenValidator interface {
	VerifyToken(header string) (*domain.CustomClaims, error)
}

type ctxKey struct{}

// ClaimsFrom достает claims, положенные middleware в контекст.
func ClaimsFrom(ctx context.Context) (*domain.CustomClaims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*domain.CustomClaims)
	return c, ok
}

// RequireScope пропускает запрос только с валидным токеном, в котором есть scope.
func RequireScope(v TokenValidator, scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.VerifyToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.Warn("auth failure", zap.String("path", r.URL.Path), zap.Error(err))
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !claims.Scopes[scope] {
				logger.Warn("scope missing", zap.String("user_id", claims.UserID), zap.String("scope", scope))
				deny(w, http.StatusForbidden, "forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
