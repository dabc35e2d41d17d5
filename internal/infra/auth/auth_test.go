package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"go.uber.org/zap"
)

func signToken(t *testing.T, key *rsa.PrivateKey, scopes map[string]bool, ttl time.Duration) string {
	t.Helper()
	claims := &domain.CustomClaims{
		UserID: "ops",
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestRequireScope(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewRSAValidator(&key.PublicKey)

	var seen *domain.CustomClaims
	h := RequireScope(v, domain.ScopeOperationsWrite, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, key, map[string]bool{domain.ScopeOperationsWrite: true}, -time.Minute), http.StatusUnauthorized},
		{"missing scope", "Bearer " + signToken(t, key, map[string]bool{"read": true}, time.Hour), http.StatusForbidden},
		{"ok", "Bearer " + signToken(t, key, map[string]bool{domain.ScopeOperationsWrite: true}, time.Hour), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/transfers", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, "ops", seen.UserID)
}

func TestParseKeysRejectEmpty(t *testing.T) {
	_, err := ParseRSAPublicKey(nil)
	assert.Error(t, err)
	_, err = ParseRSAPrivateKey([]byte("not a pem"))
	assert.Error(t, err)
}
