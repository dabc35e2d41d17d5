package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "agentmarket"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanOperations — успешная операция записи, дашборд обновляется вне таймера.
	RedisChanOperations = RedisNamespace + ":operations:executed"
)

// OnboardingKey — флаг "онбординг просмотрен" для конкретного клиента.
func OnboardingKey(clientID string) string {
	return fmt.Sprintf("%s:onboarding:%s", RedisNamespace, clientID)
}
