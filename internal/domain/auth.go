package domain

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID string          `json:"user_id"`
	Scopes map[string]bool `json:"scopes"` // "operations.write": true
	jwt.RegisteredClaims
}

// ScopeOperationsWrite дает право отправлять операции в ноду.
const ScopeOperationsWrite = "operations.write"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

// Operator — единственный оператор консоли, задается в конфиге.
type Operator struct {
	Username     string
	PasswordHash string // bcrypt, никогда не отдаем наружу
}
