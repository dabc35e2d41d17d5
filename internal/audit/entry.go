package audit

import "time"

// Результат операции в журнале
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Entry — одна запись журнала операций, отправленных в ноду.
type Entry struct {
	ID         string    `json:"id"`       // UUID записи
	TraceID    string    `json:"trace_id"` // X-Request-Id входящего запроса
	Kind       string    `json:"kind"`     // CreateAgent, TransferTokens, RequestService
	Payload    []byte    `json:"payload"`  // Операция в том виде, в котором ушла в ноду
	Status     string    `json:"status"`
	Result     string    `json:"result"`      // agentId / requestId / сырой ответ
	HTTPStatus int       `json:"http_status"` // Код ответа ноды, 0 если до ноды не дошли
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
