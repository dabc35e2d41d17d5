package handler

import (
	"net/http"
	"strconv"

	"github.com/xela07ax/agentmarket-console/internal/audit"
	"github.com/xela07ax/agentmarket-console/internal/console/service"
)

type JournalHandler struct {
	service *service.JournalService
}

func NewJournalHandler(s *service.JournalService) *JournalHandler {
	return &JournalHandler{service: s}
}

// List возвращает последние операции
// GET /api/v1/operations?limit=20
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch operation journal")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Enabled bool          `json:"enabled"`
		Entries []audit.Entry `json:"entries"`
	}{h.service.Enabled(), entries})
}
