package engine

import (
	"context"

	"github.com/xela07ax/agentmarket-console/internal/domain"
)

// Hub — реестр контроллеров поверхностей консоли.
type Hub struct {
	connection  domain.ConnectionState
	controllers map[string]*Controller
	order       []string
}

func NewHub(connection domain.ConnectionState, controllers ...*Controller) *Hub {
	h := &Hub{
		connection:  connection,
		controllers: make(map[string]*Controller, len(controllers)),
	}
	for _, c := range controllers {
		h.controllers[c.Name()] = c
		h.order = append(h.order, c.Name())
	}
	return h
}

func (h *Hub) Connection() domain.ConnectionState { return h.connection }

func (h *Hub) Controller(name string) (*Controller, bool) {
	c, ok := h.controllers[name]
	return c, ok
}

// States возвращает состояния всех поверхностей в порядке регистрации.
func (h *Hub) States() []State {
	out := make([]State, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, h.controllers[name].State())
	}
	return out
}

func (h *Hub) Start(ctx context.Context) {
	for _, name := range h.order {
		h.controllers[name].Start(ctx)
	}
}

func (h *Hub) Stop() {
	for _, name := range h.order {
		h.controllers[name].Stop()
	}
}
