package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"go.uber.org/zap"
)

var (
	ErrDisconnected      = errors.New("surface is disconnected: graphql endpoint not configured")
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrStopped           = errors.New("surface is stopped")
)

// Loader выполняет все запросы поверхности и возвращает полный снимок
// или ошибку. Частичных снимков не бывает.
type Loader func(ctx context.Context) (*domain.Snapshot, error)

// Surface описывает одну поверхность UI. Interval == 0 — без таймера,
// только загрузка при активации и явный Refresh.
type Surface struct {
	Name     string
	Interval time.Duration
	Load     Loader
}

// Controller владеет состоянием поверхности и ее периодическим таймером.
type Controller struct {
	surface   Surface
	connected bool
	metrics   *infra.Metrics
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	state     State
	listeners []func(State)
	runCtx    context.Context // nil вне Start..Stop

	refreshing atomic.Bool
	inflight   sync.WaitGroup

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewController(surface Surface, connected bool, metrics *infra.Metrics, logger *zap.Logger) *Controller {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Controller{
		surface:   surface,
		connected: connected,
		metrics:   metrics,
		logger:    logger.Named("sync").With(zap.String("surface", surface.Name)),
		now:       time.Now,
		state:     State{Surface: surface.Name, Status: StatusDisconnected},
	}
}

func (c *Controller) Name() string { return c.surface.Name }

// State возвращает копию текущего состояния.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange регистрирует наблюдателя; вызывается после каждого перехода вне мьютекса.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start активирует поверхность. Без endpoint поверхность остается Disconnected
// и не делает ни одного запроса. Таймер живет до Stop или отмены ctx.
func (c *Controller) Start(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.cancel != nil {
		return
	}

	c.dispatch(Activated{Connected: c.connected, At: c.now()})
	if !c.connected {
		c.logger.Info("surface disconnected, no endpoint configured")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.runCtx = loopCtx
	c.mu.Unlock()
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.loop(loopCtx, c.done)
}

// Stop гарантированно гасит таймер и ждет выхода цикла и всех начатых Refresh,
// включая пользовательские. Их запросы отменяются, результаты не публикуются.
// Прерванный цикл переводит поверхность из Loading в Error, а не оставляет висеть.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.cancel == nil {
		return
	}

	// После этого новые Refresh не регистрируются в inflight
	c.mu.Lock()
	c.runCtx = nil
	c.mu.Unlock()

	c.cancel()
	<-c.done
	c.inflight.Wait()
	c.cancel = nil
	c.done = nil

	if c.State().Status == StatusLoading {
		c.dispatch(RefreshFailed{Err: ErrStopped, At: c.now()})
	}
	c.logger.Debug("surface stopped")
}

func (c *Controller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	_ = c.Refresh(ctx)
	if c.surface.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.surface.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); errors.Is(err, ErrRefreshInProgress) {
				c.logger.Debug("tick skipped, previous refresh still running")
			}
		}
	}
}

// Refresh — один цикл Loading -> Ready|Error. Используется таймером и как
// пользовательский retry. Параллельный вызов во время цикла не запускает второй.
// Вне Start..Stop возвращает ErrStopped и запросов не делает.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.connected {
		return ErrDisconnected
	}

	c.mu.Lock()
	runCtx := c.runCtx
	if runCtx == nil {
		c.mu.Unlock()
		return ErrStopped
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	if !c.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer c.refreshing.Store(false)

	// Запрос живет не дольше вызывающего и не дольше активации
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unlink := context.AfterFunc(runCtx, cancel)
	defer unlink()

	if !c.dispatchActive(RefreshStarted{At: c.now()}) {
		return ErrStopped
	}
	snap, err := c.surface.Load(ctx)

	if err != nil {
		if !c.dispatchActive(RefreshFailed{Err: err, At: c.now()}) {
			return err
		}
		c.metrics.RefreshTotal.WithLabelValues(c.surface.Name, "error").Inc()
		c.logger.Warn("refresh failed, keeping previous snapshot", zap.Error(err))
		return err
	}

	// Поверхность уже размонтирована — результат никому не нужен
	if !c.dispatchActive(RefreshSucceeded{Snapshot: snap, At: c.now()}) {
		return ErrStopped
	}
	c.metrics.RefreshTotal.WithLabelValues(c.surface.Name, "ok").Inc()
	return nil
}

func (c *Controller) dispatch(ev Event) {
	c.commit(ev, false)
}

// dispatchActive применяет событие, только пока поверхность активна.
func (c *Controller) dispatchActive(ev Event) bool {
	return c.commit(ev, true)
}

func (c *Controller) commit(ev Event, onlyActive bool) bool {
	c.mu.Lock()
	if onlyActive && c.runCtx == nil {
		c.mu.Unlock()
		return false
	}
	prev := c.state.Status
	c.state = Reduce(c.state, ev)
	st := c.state
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, s := range Statuses() {
		v := 0.0
		if s == st.Status {
			v = 1
		}
		c.metrics.SurfaceStatus.WithLabelValues(c.surface.Name, string(s)).Set(v)
	}
	if prev != st.Status {
		c.logger.Debug("surface transition", zap.String("from", string(prev)), zap.String("to", string(st.Status)))
	}

	for _, fn := range listeners {
		fn(st)
	}
	return true
}
