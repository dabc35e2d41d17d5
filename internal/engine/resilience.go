package engine

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenSignalsResilient — "живучая" подписка на канал Redis.
// Переподключается после обрыва и вызывает onReconnect после каждой
// успешной подписки, чтобы догнать сигналы, пропущенные за время разрыва.
func ListenSignalsResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func(),
	onMessage func(payload string),
) {
	for {
		if ctx.Err() != nil {
			return
		}
		pubsub := rdb.Subscribe(ctx, channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}

		onReconnect()
		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				onMessage(msg.Payload)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

// RefreshOnSignal — обработчик для ListenSignalsResilient: любой сигнал о записи
// запускает внеочередное обновление поверхности.
func RefreshOnSignal(ctx context.Context, c *Controller, logger *zap.Logger) func(payload string) {
	return func(payload string) {
		logger.Debug("operation signal received", zap.String("kind", payload), zap.String("surface", c.Name()))
		go func() {
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) && !errors.Is(err, ErrStopped) {
				logger.Warn("signal-triggered refresh failed", zap.Error(err))
			}
		}()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
