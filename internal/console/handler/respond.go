package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/agentmarket-console/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor переводит типизированную ошибку в HTTP-статус ответа.
func statusFor(err error) int {
	var (
		cfgErr *domain.ConfigurationError
		upErr  *domain.UpstreamError
		vErr   *domain.ValidationError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &upErr):
		if upErr.StatusCode >= 400 && upErr.StatusCode <= 599 {
			return upErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// errorMessage: тело ошибки ноды отдаем как есть, остальное текстом ошибки.
func errorMessage(err error) string {
	var upErr *domain.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Body
	}
	return err.Error()
}
