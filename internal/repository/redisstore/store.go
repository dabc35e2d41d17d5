package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/agentmarket-console/internal/infra"
)

// Store хранит флаг онбординга и публикует сигналы об операциях записи.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect поднимает клиента и проверяет соединение.
func Connect(ctx context.Context, cfg infra.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// OnboardingSeen — отсутствие ключа означает "еще не видел".
func (s *Store) OnboardingSeen(ctx context.Context, clientID string) (bool, error) {
	val, err := s.rdb.Get(ctx, infra.OnboardingKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: get onboarding: %w", err)
	}
	return val == "1", nil
}

func (s *Store) SetOnboardingSeen(ctx context.Context, clientID string, seen bool) error {
	key := infra.OnboardingKey(clientID)
	var err error
	if seen {
		err = s.rdb.Set(ctx, key, "1", 0).Err()
	} else {
		err = s.rdb.Del(ctx, key).Err()
	}
	if err != nil {
		return fmt.Errorf("redis: set onboarding: %w", err)
	}
	return nil
}

// PublishOperation сообщает подписчикам, что в ноду ушла операция указанного вида.
func (s *Store) PublishOperation(ctx context.Context, kind string) error {
	if err := s.rdb.Publish(ctx, infra.RedisChanOperations, kind).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", infra.RedisChanOperations, err)
	}
	return nil
}
