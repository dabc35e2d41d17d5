package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"github.com/xela07ax/agentmarket-console/internal/operation"
	"go.uber.org/zap"
)

// maxResponseBody — сколько байт ответа ноды мы готовы прочитать.
const maxResponseBody = 1 << 20

// Outcome — результат успешной операции для UI.
type Outcome struct {
	AgentID   string          `json:"agentId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Forwarder пересылает закодированную операцию в приложение ноды.
// Без ретраев и дедупликации: один Execute — один POST.
type Forwarder struct {
	rpcEndpoint   string
	chainID       string
	applicationID string

	httpClient *http.Client
	metrics    *infra.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewForwarder(cfg infra.NodeConfig, httpClient *http.Client, metrics *infra.Metrics, logger *zap.Logger) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Forwarder{
		rpcEndpoint:   strings.TrimRight(cfg.RPCEndpoint, "/"),
		chainID:       cfg.ChainID,
		applicationID: cfg.ApplicationID,
		httpClient:    httpClient,
		metrics:       metrics,
		logger:        logger.Named("forwarder"),
		now:           time.Now,
	}
}

// Execute отправляет операцию и переводит HTTP-ответ в Outcome или типизированную ошибку.
func (f *Forwarder) Execute(ctx context.Context, op operation.Operation) (*Outcome, error) {
	kind := string(op.Kind())
	start := time.Now()
	result := "success"
	defer func() {
		f.metrics.OperationDuration.WithLabelValues(kind, result).Observe(time.Since(start).Seconds())
		f.metrics.OperationsTotal.WithLabelValues(kind, result).Inc()
	}()

	// 1. Конфигурация проверяется до любого сетевого вызова
	if f.applicationID == "" {
		result = "config_error"
		f.logger.Error("application id not configured")
		return nil, &domain.ConfigurationError{Missing: "application id"}
	}
	if f.chainID == "" {
		result = "config_error"
		f.logger.Error("chain id not configured")
		return nil, &domain.ConfigurationError{Missing: "chain id"}
	}
	if err := op.Validate(); err != nil {
		result = "validation_error"
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return nil, vErr
		}
		return nil, &domain.ValidationError{Field: "operation", Reason: err.Error()}
	}

	body, err := json.Marshal(struct {
		Operation operation.Operation `json:"operation"`
	}{op})
	if err != nil {
		result = "validation_error"
		return nil, fmt.Errorf("encode operation: %w", err)
	}

	f.logger.Info("executing operation",
		zap.String("chain_id", f.chainID),
		zap.String("application_id", f.applicationID),
		zap.String("kind", kind))

	// 2. Один POST, без ретраев
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.applicationURL(), bytes.NewReader(body))
	if err != nil {
		result = "transport_error"
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		result = "transport_error"
		f.logger.Error("node unreachable", zap.String("kind", kind), zap.Error(err))
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	// Лишний байт сверх лимита говорит, что тело обрезано
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		result = "transport_error"
		return nil, fmt.Errorf("read response: %w", err)
	}
	truncated := len(data) > maxResponseBody
	if truncated {
		data = data[:maxResponseBody]
	}

	// 3. Не-2xx: отдаем тело как есть вместе с исходным статусом
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result = "upstream_error"
		f.logger.Warn("node rejected operation",
			zap.String("kind", kind),
			zap.Int("status", resp.StatusCode),
			zap.Bool("truncated", truncated),
			zap.ByteString("body", data))
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(data), Truncated: truncated}
	}
	if truncated || !json.Valid(data) {
		result = "upstream_error"
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(data), Truncated: truncated}
	}

	return f.outcome(op.Kind(), data), nil
}

func (f *Forwarder) applicationURL() string {
	return fmt.Sprintf("%s/chains/%s/applications/%s",
		f.rpcEndpoint, url.PathEscape(f.chainID), url.PathEscape(f.applicationID))
}

// outcome достает идентификатор созданной сущности; если нода его не вернула,
// синтезирует его из текущего времени.
func (f *Forwarder) outcome(kind operation.Kind, data []byte) *Outcome {
	var ids struct {
		AgentID   string `json:"agent_id"`
		RequestID string `json:"request_id"`
	}
	// Ответ может быть не объектом — тогда id просто нет.
	_ = json.Unmarshal(data, &ids)

	switch kind {
	case operation.KindCreateAgent:
		if ids.AgentID == "" {
			ids.AgentID = f.fallbackID("agent")
		}
		return &Outcome{AgentID: ids.AgentID}
	case operation.KindRequestService:
		if ids.RequestID == "" {
			ids.RequestID = f.fallbackID("req")
		}
		return &Outcome{RequestID: ids.RequestID}
	}
	return &Outcome{Result: json.RawMessage(data)}
}

func (f *Forwarder) fallbackID(prefix string) string {
	return prefix + "_" + strconv.FormatInt(f.now().UnixMilli(), 10)
}
