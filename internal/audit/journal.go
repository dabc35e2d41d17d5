package audit

/*
Журнал операций консоли.

Record вызывается на горячем пути записи и никогда не блокирует его:
события уходят в буферизованный канал, воркер копит пачку и пишет
ее в хранилище по таймеру или при заполнении. При переполнении канала
запись сбрасывается в лог (load shedding).

Stop закрывает вход, воркер вычитывает остаток канала и делает
финальный flush, поэтому при штатной остановке записи не теряются.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 10000
	defaultBatchSize  = 100
	defaultFlushEvery = 500 * time.Millisecond
	flushTimeout      = 5 * time.Second
)

// Storage определяет, куда физически пишутся записи.
type Storage interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

// Recorder — то, что нужно сервису операций.
type Recorder interface {
	Record(e Entry)
}

type Journal struct {
	ch         chan Entry
	repo       Storage
	metrics    *infra.Metrics
	logger     *zap.Logger
	batchSize  int
	flushEvery time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex // держит закрытие канала против параллельного Record
	closed atomic.Bool
}

type Option func(*Journal)

func WithBatch(size int, every time.Duration) Option {
	return func(j *Journal) {
		if size > 0 {
			j.batchSize = size
		}
		if every > 0 {
			j.flushEvery = every
		}
	}
}

func WithBufferSize(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.ch = make(chan Entry, n)
		}
	}
}

// NewJournal создает журнал. Если repo == nil, записи уходят только в zap.
func NewJournal(repo Storage, metrics *infra.Metrics, logger *zap.Logger, opts ...Option) *Journal {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	j := &Journal{
		ch:         make(chan Entry, defaultBufferSize),
		metrics:    metrics,
		logger:     logger.Named("journal"),
		batchSize:  defaultBatchSize,
		flushEvery: defaultFlushEvery,
	}
	if repo == nil {
		repo = &LogStorage{logger: j.logger}
	}
	j.repo = repo
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop запирает вход и ждет, пока воркер все допишет. Повторный вызов безопасен.
func (j *Journal) Stop() {
	j.mu.Lock()
	if j.closed.Swap(true) {
		j.mu.Unlock()
		return
	}
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.mu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Record(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed.Load() {
		j.logger.Warn("journal entry dropped: journal is stopping", zap.String("id", e.ID))
		return
	}

	select {
	case j.ch <- e:
		j.metrics.JournalBufferFill.Set(float64(len(j.ch)))
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("kind", e.Kind),
			zap.String("status", e.Status),
			zap.String("trace_id", e.TraceID),
		)
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Entry, 0, j.batchSize)
	ticker := time.NewTicker(j.flushEvery)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.write(batch); err != nil {
			j.logger.Error("journal flush failed", zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		j.metrics.JournalBufferFill.Set(float64(len(j.ch)))
	}

	for {
		select {
		case e, ok := <-j.ch:
			if !ok {
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, e)
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// write пишет пачку с короткими повторами. Контекст свой: на Stop внешний уже отменен.
func (j *Journal) write(batch []Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(3),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return r.Do(func() error {
		return j.repo.WriteBatch(ctx, batch)
	})
}

// LogStorage — хранилище без БД: каждая запись уходит в лог.
type LogStorage struct {
	logger *zap.Logger
}

func NewLogStorage(logger *zap.Logger) *LogStorage {
	return &LogStorage{logger: logger}
}

func (s *LogStorage) WriteBatch(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		s.logger.Info("operation",
			zap.String("id", e.ID),
			zap.String("trace_id", e.TraceID),
			zap.String("kind", e.Kind),
			zap.String("status", e.Status),
			zap.Int("http_status", e.HTTPStatus),
			zap.Int64("duration_ms", e.DurationMs),
			zap.String("error", e.Error),
		)
	}
	return nil
}
