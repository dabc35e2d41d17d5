package domain

import "fmt"

// ConfigurationError — не задан обязательный идентификатор или endpoint.
// Фатальна для операции, но не для процесса.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured", e.Missing)
}

// UpstreamError — нода ответила не-2xx (или 2xx без JSON). Body отдается как есть,
// но не длиннее лимита чтения форвардера (1 MiB); обрезанное тело помечено Truncated.
type UpstreamError struct {
	StatusCode int
	Body       string
	Truncated  bool
}

func (e *UpstreamError) Error() string {
	if e.Truncated {
		return fmt.Sprintf("node operation failed (%d, body truncated to %d bytes): %s", e.StatusCode, len(e.Body), e.Body)
	}
	return fmt.Sprintf("node operation failed (%d): %s", e.StatusCode, e.Body)
}

// QueryError оборачивает сбой транспорта, GraphQL или декодирования.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ValidationError — некорректный ввод, пойман до любого сетевого вызова.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}
