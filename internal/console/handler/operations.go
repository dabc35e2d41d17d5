package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/node"
	"github.com/xela07ax/agentmarket-console/internal/operation"
	"go.uber.org/zap"
)

const maxRequestBody = 64 << 10

// OperationRunner — путь записи: кодирование, пересылка, журнал.
type OperationRunner interface {
	Execute(ctx context.Context, traceID string, op operation.Operation) (*node.Outcome, error)
	CreateAgent(ctx context.Context, traceID string, p operation.CreateAgentParams) (*node.Outcome, error)
	Transfer(ctx context.Context, traceID string, p operation.TransferParams) (*node.Outcome, error)
	RequestService(ctx context.Context, traceID string, p operation.ServiceRequestParams) (*node.Outcome, error)
}

type OperationHandler struct {
	runner OperationRunner
	logger *zap.Logger
}

func NewOperationHandler(runner OperationRunner, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{runner: runner, logger: logger.Named("operations-api")}
}

type operationResponse struct {
	Success bool `json:"success"`
	*node.Outcome
}

// Execute — POST /api/execute-operation, тело {"operation": <Operation>}.
func (h *OperationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Operation *operation.Operation `json:"operation"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond(w, r, nil, &domain.ValidationError{Field: "operation", Reason: err.Error()})
		return
	}
	if body.Operation == nil {
		h.respond(w, r, nil, &domain.ValidationError{Field: "operation", Reason: "is required"})
		return
	}
	if err := body.Operation.Validate(); err != nil {
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			err = &domain.ValidationError{Field: "operation", Reason: err.Error()}
		}
		h.respond(w, r, nil, err)
		return
	}

	out, err := h.runner.Execute(r.Context(), middleware.GetReqID(r.Context()), *body.Operation)
	h.respond(w, r, out, err)
}

// CreateAgent — POST /api/agents, JSON или HTML-форма.
func (h *OperationHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var p operation.CreateAgentParams
	if err := h.decode(w, r, &p, func() (err error) {
		p, err = operation.ParseCreateAgentForm(r.PostForm)
		return err
	}); err != nil {
		h.respond(w, r, nil, err)
		return
	}
	out, err := h.runner.CreateAgent(r.Context(), middleware.GetReqID(r.Context()), p)
	h.respond(w, r, out, err)
}

// Transfer — POST /api/transfers.
func (h *OperationHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var p operation.TransferParams
	if err := h.decode(w, r, &p, func() (err error) {
		p, err = operation.ParseTransferForm(r.PostForm)
		return err
	}); err != nil {
		h.respond(w, r, nil, err)
		return
	}
	if p.ToAgent == "" {
		h.respond(w, r, nil, &domain.ValidationError{Field: "toAgent", Reason: "is required"})
		return
	}
	out, err := h.runner.Transfer(r.Context(), middleware.GetReqID(r.Context()), p)
	h.respond(w, r, out, err)
}

// ServiceRequest — POST /api/service-requests.
func (h *OperationHandler) ServiceRequest(w http.ResponseWriter, r *http.Request) {
	var p operation.ServiceRequestParams
	if err := h.decode(w, r, &p, func() (err error) {
		p, err = operation.ParseServiceRequestForm(r.PostForm)
		return err
	}); err != nil {
		h.respond(w, r, nil, err)
		return
	}
	if p.ProviderAgent == "" || p.ServiceType == "" {
		h.respond(w, r, nil, &domain.ValidationError{Field: "providerAgent", Reason: "and serviceType are required"})
		return
	}
	out, err := h.runner.RequestService(r.Context(), middleware.GetReqID(r.Context()), p)
	h.respond(w, r, out, err)
}

// decode читает JSON в dst либо разбирает форму через fromForm.
func (h *OperationHandler) decode(w http.ResponseWriter, r *http.Request, dst any, fromForm func() error) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return &domain.ValidationError{Reason: "malformed form: " + err.Error()}
		}
		return fromForm()
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxRequestBody); err != nil {
			return &domain.ValidationError{Reason: "malformed form: " + err.Error()}
		}
		return fromForm()
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Reason: "malformed json: " + err.Error()}
	}
	return nil
}

func (h *OperationHandler) respond(w http.ResponseWriter, r *http.Request, out *node.Outcome, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("operation failed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Int("status", status),
				zap.Error(err))
		}
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) && upErr.Truncated {
			w.Header().Set("X-Upstream-Body-Truncated", "true")
		}
		writeError(w, status, errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Outcome: out})
}
