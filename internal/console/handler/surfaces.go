package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/engine"
)

// SurfaceHub описываем то, что нам нужно от engine.Hub
type SurfaceHub interface {
	Connection() domain.ConnectionState
	Controller(name string) (*engine.Controller, bool)
	States() []engine.State
}

type SurfaceHandler struct {
	hub SurfaceHub
}

func NewSurfaceHandler(hub SurfaceHub) *SurfaceHandler {
	return &SurfaceHandler{hub: hub}
}

// Connection — GET /api/v1/connection
func (h *SurfaceHandler) Connection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]domain.ConnectionState{"connection": h.hub.Connection()})
}

// List — GET /api/v1/surfaces
func (h *SurfaceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.States())
}

// Get — GET /api/v1/surfaces/{name}
func (h *SurfaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.hub.Controller(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown surface")
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

type dashboardResponse struct {
	Status    engine.Status         `json:"status"`
	Retryable bool                  `json:"retryable"`
	Error     string                `json:"error,omitempty"`
	View      *domain.DashboardView `json:"view"`
}

// Dashboard — GET /api/v1/dashboard: состояние поверхности dashboard плюс
// отформатированная сводка (top agents, суммы, давность). В Error отдается
// последний удачный снимок.
func (h *SurfaceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.hub.Controller(engine.SurfaceDashboard)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown surface")
		return
	}
	st := c.State()
	writeJSON(w, http.StatusOK, dashboardResponse{
		Status:    st.Status,
		Retryable: st.Retryable,
		Error:     st.Err,
		View:      domain.NewDashboardView(st.Snapshot, time.Now()),
	})
}

// Retry — POST /api/v1/surfaces/{name}/retry. Ждет конца цикла и отдает новое состояние.
func (h *SurfaceHandler) Retry(w http.ResponseWriter, r *http.Request) {
	c, ok := h.hub.Controller(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown surface")
		return
	}

	// Обрыв клиента не должен превращать общий снимок в Error
	err := c.Refresh(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, engine.ErrDisconnected), errors.Is(err, engine.ErrStopped):
		writeJSON(w, http.StatusConflict, c.State())
	case errors.Is(err, engine.ErrRefreshInProgress):
		writeJSON(w, http.StatusAccepted, c.State())
	default:
		// Ошибка запроса уже отражена в состоянии (Error + retryable)
		writeJSON(w, http.StatusOK, c.State())
	}
}
