package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/agentmarket-console/internal/console/service"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"go.uber.org/zap"
)

const maxLoginBody = 4 << 10

// AuthHandler выдает операторский токен для маршрутов записи в ноду.
type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(s *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger.Named("auth-api")}
}

// Login — POST /auth/token, тело {"username","password"}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, (&domain.ValidationError{Reason: "malformed json"}).Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, (&domain.ValidationError{Field: "username", Reason: "and password are required"}).Error())
		return
	}

	resp, err := h.service.GenerateToken(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		// Ответ одинаковый для неверного логина и пароля
		h.logger.Warn("operator login rejected",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case err != nil:
		h.logger.Error("issue operator token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "token unavailable")
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}
