package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/xela07ax/agentmarket-console/internal/audit"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/node"
	"github.com/xela07ax/agentmarket-console/internal/operation"
	"go.uber.org/zap"
)

// Executor — путь записи в ноду (node.Forwarder).
type Executor interface {
	Execute(ctx context.Context, op operation.Operation) (*node.Outcome, error)
}

// Publisher разносит сигнал об успешной записи. Может отсутствовать.
type Publisher interface {
	PublishOperation(ctx context.Context, kind string) error
}

type OperationService struct {
	executor  Executor
	journal   audit.Recorder
	publisher Publisher
	logger    *zap.Logger
}

func NewOperationService(executor Executor, journal audit.Recorder, publisher Publisher, logger *zap.Logger) *OperationService {
	return &OperationService{
		executor:  executor,
		journal:   journal,
		publisher: publisher,
		logger:    logger.Named("operation-service"),
	}
}

// Execute отправляет готовую операцию в ноду, пишет журнал и после успеха
// сигналит дашборду. Ошибка ноды возвращается как есть, без ретраев.
func (s *OperationService) Execute(ctx context.Context, traceID string, op operation.Operation) (*node.Outcome, error) {
	start := time.Now()
	out, err := s.executor.Execute(ctx, op)
	kind := string(op.Kind())

	s.record(traceID, op, out, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishOperation(ctx, kind); pubErr != nil {
			// Сигнал необязателен: дашборд догонит по таймеру
			s.logger.Warn("operation signal delivery failed", zap.String("kind", kind), zap.Error(pubErr))
		}
	}
	return out, nil
}

func (s *OperationService) CreateAgent(ctx context.Context, traceID string, p operation.CreateAgentParams) (*node.Outcome, error) {
	op, err := operation.EncodeCreateAgent(p)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, traceID, op)
}

func (s *OperationService) Transfer(ctx context.Context, traceID string, p operation.TransferParams) (*node.Outcome, error) {
	return s.Execute(ctx, traceID, operation.EncodeTransfer(p))
}

func (s *OperationService) RequestService(ctx context.Context, traceID string, p operation.ServiceRequestParams) (*node.Outcome, error) {
	return s.Execute(ctx, traceID, operation.EncodeRequestService(p))
}

func (s *OperationService) record(traceID string, op operation.Operation, out *node.Outcome, err error, took time.Duration) {
	if s.journal == nil {
		return
	}
	payload, _ := json.Marshal(op)
	e := audit.Entry{
		TraceID:    traceID,
		Kind:       string(op.Kind()),
		Payload:    payload,
		Status:     audit.StatusSuccess,
		DurationMs: took.Milliseconds(),
	}

	if err != nil {
		e.Status = audit.StatusFailed
		e.Error = err.Error()
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			e.HTTPStatus = upErr.StatusCode
		}
	} else if out != nil {
		switch {
		case out.AgentID != "":
			e.Result = out.AgentID
		case out.RequestID != "":
			e.Result = out.RequestID
		default:
			e.Result = string(out.Result)
		}
	}
	s.journal.Record(e)
}
