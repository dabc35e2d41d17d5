package engine

import (
	"time"

	"github.com/xela07ax/agentmarket-console/internal/domain"
)

// Status — состояние поверхности UI.
type Status string

const (
	StatusDisconnected Status = "Disconnected"
	StatusLoading      Status = "Loading"
	StatusReady        Status = "Ready"
	StatusError        Status = "Error"
)

func Statuses() []Status {
	return []Status{StatusDisconnected, StatusLoading, StatusReady, StatusError}
}

// State — явное состояние одной поверхности. Snapshot после публикации не мутируется,
// поэтому State можно отдавать наружу копией.
type State struct {
	Surface   string           `json:"surface"`
	Status    Status           `json:"status"`
	Snapshot  *domain.Snapshot `json:"snapshot,omitempty"`
	Err       string           `json:"error,omitempty"`
	Retryable bool             `json:"retryable"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Event — вход редьюсера.
type Event interface {
	at() time.Time
}

// Activated — монтирование поверхности.
type Activated struct {
	Connected bool
	At        time.Time
}

type RefreshStarted struct {
	At time.Time
}

type RefreshSucceeded struct {
	Snapshot *domain.Snapshot
	At       time.Time
}

type RefreshFailed struct {
	Err error
	At  time.Time
}

func (e Activated) at() time.Time        { return e.At }
func (e RefreshStarted) at() time.Time   { return e.At }
func (e RefreshSucceeded) at() time.Time { return e.At }
func (e RefreshFailed) at() time.Time    { return e.At }

// Reduce — чистая функция переходов:
//
//	Activated{false}          -> Disconnected
//	Activated{true}           -> Loading
//	Ready|Error|Loading + RefreshStarted -> Loading (снимок сохраняется)
//	Loading + RefreshSucceeded -> Ready (снимок заменяется целиком)
//	Loading + RefreshFailed    -> Error (прошлый снимок сохраняется)
//
// Disconnected терминален до следующего Activated.
func Reduce(s State, ev Event) State {
	next := s
	switch e := ev.(type) {
	case Activated:
		next.Snapshot = nil
		next.Err = ""
		if !e.Connected {
			next.Status = StatusDisconnected
		} else {
			next.Status = StatusLoading
		}
	case RefreshStarted:
		if s.Status == StatusDisconnected {
			return s
		}
		next.Status = StatusLoading
		next.Err = ""
	case RefreshSucceeded:
		if s.Status != StatusLoading || e.Snapshot == nil {
			return s
		}
		next.Status = StatusReady
		next.Snapshot = e.Snapshot
		next.Err = ""
	case RefreshFailed:
		if s.Status != StatusLoading {
			return s
		}
		next.Status = StatusError
		next.Err = "refresh failed"
		if e.Err != nil {
			next.Err = e.Err.Error()
		}
	default:
		return s
	}
	next.Retryable = next.Status == StatusError
	next.UpdatedAt = ev.at()
	return next
}
