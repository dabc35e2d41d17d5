package service

import (
	"context"
	"strings"
	"sync"

	"github.com/xela07ax/agentmarket-console/internal/domain"
)

// OnboardingStore — персистентный флаг "онбординг просмотрен".
type OnboardingStore interface {
	OnboardingSeen(ctx context.Context, clientID string) (bool, error)
	SetOnboardingSeen(ctx context.Context, clientID string, seen bool) error
}

type OnboardingService struct {
	store OnboardingStore
}

// NewOnboardingService без store держит флаги в памяти процесса.
func NewOnboardingService(store OnboardingStore) *OnboardingService {
	if store == nil {
		store = NewMemoryOnboarding()
	}
	return &OnboardingService{store: store}
}

func (s *OnboardingService) Seen(ctx context.Context, clientID string) (bool, error) {
	if err := validateClientID(clientID); err != nil {
		return false, err
	}
	return s.store.OnboardingSeen(ctx, clientID)
}

func (s *OnboardingService) SetSeen(ctx context.Context, clientID string, seen bool) error {
	if err := validateClientID(clientID); err != nil {
		return err
	}
	return s.store.SetOnboardingSeen(ctx, clientID, seen)
}

func validateClientID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ValidationError{Field: "clientID", Reason: "is required"}
	}
	if len(id) > 128 || strings.ContainsAny(id, ": \t\n") {
		return &domain.ValidationError{Field: "clientID", Reason: "is malformed"}
	}
	return nil
}

type MemoryOnboarding struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func NewMemoryOnboarding() *MemoryOnboarding {
	return &MemoryOnboarding{seen: make(map[string]bool)}
}

func (m *MemoryOnboarding) OnboardingSeen(_ context.Context, clientID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seen[clientID], nil
}

func (m *MemoryOnboarding) SetOnboardingSeen(_ context.Context, clientID string, seen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seen {
		m.seen[clientID] = true
	} else {
		delete(m.seen, clientID)
	}
	return nil
}
