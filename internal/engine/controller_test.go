package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"go.uber.org/zap"
)

type fakeQuerier struct {
	mu      sync.Mutex
	calls   map[string]int
	agents  []domain.Agent
	failing map[string]error
}

func newFakeQuerier(agents int) *fakeQuerier {
	q := &fakeQuerier{calls: map[string]int{}, failing: map[string]error{}}
	for i := 0; i < agents; i++ {
		q.agents = append(q.agents, domain.Agent{ID: "agent_" + string(rune('a'+i)), StrategyType: domain.StrategyOracle})
	}
	return q
}

func (q *fakeQuerier) hit(name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls[name]++
	return q.failing[name]
}

func (q *fakeQuerier) fail(name string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failing[name] = err
}

func (q *fakeQuerier) total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, c := range q.calls {
		n += c
	}
	return n
}

func (q *fakeQuerier) MarketplaceStats(ctx context.Context) (*domain.MarketplaceStats, error) {
	if err := q.hit("stats"); err != nil {
		return nil, err
	}
	return &domain.MarketplaceStats{TotalAgents: uint64(len(q.agents))}, nil
}

func (q *fakeQuerier) Agents(ctx context.Context) ([]domain.Agent, error) {
	if err := q.hit("agents"); err != nil {
		return nil, err
	}
	return append([]domain.Agent(nil), q.agents...), nil
}

func (q *fakeQuerier) Transactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if err := q.hit("transactions"); err != nil {
		return nil, err
	}
	return []domain.Transaction{{ID: "tx_1"}}, nil
}

func (q *fakeQuerier) MarketListings(ctx context.Context) ([]domain.MarketListing, error) {
	if err := q.hit("listings"); err != nil {
		return nil, err
	}
	return []domain.MarketListing{{AgentID: "agent_a"}}, nil
}

func (q *fakeQuerier) PendingRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	if err := q.hit("requests"); err != nil {
		return nil, err
	}
	return nil, nil
}

func waitStatus(t *testing.T, c *Controller, want Status) State {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State().Status == want && !c.refreshing.Load()
	}, time.Second, 5*time.Millisecond)
	return c.State()
}

func TestControllerDisconnectedIssuesNoQueries(t *testing.T) {
	q := newFakeQuerier(3)
	c := NewController(DashboardSurface(q, 10*time.Millisecond, 10), false, nil, zap.NewNop())

	c.Start(context.Background())
	defer c.Stop()

	assert.Equal(t, StatusDisconnected, c.State().Status)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrDisconnected)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, q.total())
}

func TestControllerReachesReady(t *testing.T) {
	q := newFakeQuerier(4)
	c := NewController(DashboardSurface(q, 0, 10), true, nil, zap.NewNop())

	c.Start(context.Background())
	defer c.Stop()

	st := waitStatus(t, c, StatusReady)
	require.NotNil(t, st.Snapshot)
	assert.Len(t, st.Snapshot.Agents, 4)
	assert.Equal(t, uint64(4), st.Snapshot.Stats.TotalAgents)
	assert.Len(t, st.Snapshot.Transactions, 1)
	assert.False(t, st.Retryable)
}

func TestControllerFailureKeepsPreviousSnapshot(t *testing.T) {
	q := newFakeQuerier(2)
	c := NewController(DashboardSurface(q, 0, 10), true, nil, zap.NewNop())

	c.Start(context.Background())
	defer c.Stop()
	ready := waitStatus(t, c, StatusReady)

	q.fail("transactions", errors.New("graphql: transactions unavailable"))
	err := c.Refresh(context.Background())
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, StatusError, st.Status)
	assert.True(t, st.Retryable)
	assert.Contains(t, st.Err, "transactions unavailable")
	assert.Same(t, ready.Snapshot, st.Snapshot)

	// Повторная попытка после восстановления
	q.fail("transactions", nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, StatusReady, c.State().Status)
	assert.NotSame(t, ready.Snapshot, c.State().Snapshot)
}

func TestControllerFirstRefreshFailsWithoutSnapshot(t *testing.T) {
	q := newFakeQuerier(2)
	q.fail("listings", errors.New("down"))
	c := NewController(MarketplaceSurface(q), true, nil, zap.NewNop())

	c.Start(context.Background())
	defer c.Stop()

	st := waitStatus(t, c, StatusError)
	assert.Nil(t, st.Snapshot)
	// Оба запроса цикла отработали, несмотря на ошибку одного
	require.Eventually(t, func() bool { return q.total() == 2 }, time.Second, 5*time.Millisecond)
}

func TestControllerTimerReleasedOnStop(t *testing.T) {
	q := newFakeQuerier(1)
	c := NewController(DashboardSurface(q, 10*time.Millisecond, 10), true, nil, zap.NewNop())

	c.Start(context.Background())
	require.Eventually(t, func() bool { return q.total() >= 9 }, time.Second, 5*time.Millisecond)

	c.Stop()
	after := q.total()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, q.total())

	// Повторный Stop безопасен
	c.Stop()
}

func TestControllerCoalescesConcurrentRefresh(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	surface := Surface{
		Name: "slow",
		Load: func(ctx context.Context) (*domain.Snapshot, error) {
			started <- struct{}{}
			<-release
			return &domain.Snapshot{}, nil
		},
	}
	c := NewController(surface, true, nil, zap.NewNop())
	c.Start(context.Background())
	defer c.Stop()

	<-started
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrRefreshInProgress)
	close(release)
	waitStatus(t, c, StatusReady)
}

func TestControllerStopDropsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	surface := Surface{
		Name: "hanging",
		Load: func(ctx context.Context) (*domain.Snapshot, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c := NewController(surface, true, nil, zap.NewNop())
	c.Start(context.Background())
	<-started

	c.Stop()
	st := c.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Contains(t, st.Err, "stopped")
	assert.True(t, st.Retryable)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrStopped)
}

func TestControllerRefreshBeforeStartMakesNoQueries(t *testing.T) {
	q := newFakeQuerier(1)
	c := NewController(RequestsSurface(q), true, nil, zap.NewNop())

	assert.ErrorIs(t, c.Refresh(context.Background()), ErrStopped)
	assert.Zero(t, q.total())
	assert.Equal(t, StatusDisconnected, c.State().Status)
}

func TestControllerStopCancelsUserRefresh(t *testing.T) {
	var calls atomic.Int32
	hung := make(chan struct{})
	surface := Surface{
		Name: "retry",
		Load: func(ctx context.Context) (*domain.Snapshot, error) {
			if calls.Add(1) == 2 {
				close(hung)
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &domain.Snapshot{FetchedAt: time.Now()}, nil
		},
	}
	c := NewController(surface, true, nil, zap.NewNop())
	c.Start(context.Background())
	waitStatus(t, c, StatusReady)

	// Пользовательский retry не привязан к контексту запроса
	errCh := make(chan error, 1)
	go func() { errCh <- c.Refresh(context.WithoutCancel(context.Background())) }()
	<-hung

	c.Stop()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, StatusError, c.State().Status)
	assert.Contains(t, c.State().Err, "stopped")

	// Повторная активация не видит хвостов прошлого цикла
	c.Start(context.Background())
	defer c.Stop()
	st := waitStatus(t, c, StatusReady)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, int32(3), calls.Load())
}

func TestControllerNotifiesListeners(t *testing.T) {
	q := newFakeQuerier(1)
	c := NewController(RequestsSurface(q), true, nil, zap.NewNop())

	var mu sync.Mutex
	var seen []Status
	c.OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})

	c.Start(context.Background())
	defer c.Stop()
	waitStatus(t, c, StatusReady)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusLoading, StatusLoading, StatusReady}, seen)
}

func TestHubStates(t *testing.T) {
	q := newFakeQuerier(1)
	hub := NewHub(domain.Connected,
		NewController(MarketplaceSurface(q), true, nil, zap.NewNop()),
		NewController(RequestsSurface(q), true, nil, zap.NewNop()),
	)

	hub.Start(context.Background())
	defer hub.Stop()

	c, ok := hub.Controller(SurfaceRequests)
	require.True(t, ok)
	waitStatus(t, c, StatusReady)

	_, ok = hub.Controller("unknown")
	assert.False(t, ok)

	states := hub.States()
	require.Len(t, states, 2)
	assert.Equal(t, SurfaceMarketplace, states[0].Surface)
	assert.Equal(t, domain.Connected, hub.Connection())
}

func TestRefreshOnSignal(t *testing.T) {
	q := newFakeQuerier(1)
	c := NewController(RequestsSurface(q), true, nil, zap.NewNop())
	c.Start(context.Background())
	defer c.Stop()
	waitStatus(t, c, StatusReady)
	before := q.total()

	RefreshOnSignal(context.Background(), c, zap.NewNop())("TransferTokens")

	require.Eventually(t, func() bool { return q.total() == before+1 }, time.Second, 5*time.Millisecond)
	waitStatus(t, c, StatusReady)
}
