package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/agentmarket-console/internal/console/service"
	"github.com/xela07ax/agentmarket-console/internal/domain"
)

type OnboardingHandler struct {
	service *service.OnboardingService
}

func NewOnboardingHandler(s *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{service: s}
}

type onboardingState struct {
	ClientID string `json:"clientId"`
	Seen     bool   `json:"seen"`
}

// Get — GET /api/v1/onboarding/{clientID}
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "clientID")
	seen, err := h.service.Seen(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, onboardingState{ClientID: id, Seen: seen})
}

// Put — PUT /api/v1/onboarding/{clientID}, тело {"seen": true}
func (h *OnboardingHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "clientID")
	var body struct {
		Seen *bool `json:"seen"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil || body.Seen == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"seen\": bool}")
		return
	}
	if err := h.service.SetSeen(r.Context(), id, *body.Seen); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, onboardingState{ClientID: id, Seen: *body.Seen})
}

func (h *OnboardingHandler) fail(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "onboarding store unavailable")
}
