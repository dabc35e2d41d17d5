package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentmarket-console/internal/audit"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/node"
	"github.com/xela07ax/agentmarket-console/internal/operation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeExecutor struct {
	calls []operation.Operation
	out   *node.Outcome
	err   error
}

func (f *fakeExecutor) Execute(_ context.Context, op operation.Operation) (*node.Outcome, error) {
	f.calls = append(f.calls, op)
	return f.out, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeRecorder) Record(e audit.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

type fakePublisher struct {
	kinds []string
	err   error
}

func (f *fakePublisher) PublishOperation(_ context.Context, kind string) error {
	f.kinds = append(f.kinds, kind)
	return f.err
}

func TestOperationServiceSuccess(t *testing.T) {
	exec := &fakeExecutor{out: &node.Outcome{AgentID: "agent_42"}}
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	svc := NewOperationService(exec, rec, pub, zap.NewNop())

	out, err := svc.CreateAgent(context.Background(), "trace-1", operation.CreateAgentParams{
		Name:           "alpha",
		Strategy:       domain.StrategyOracle,
		InitialBalance: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, "agent_42", out.AgentID)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, operation.KindCreateAgent, exec.calls[0].Kind())

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, "CreateAgent", e.Kind)
	assert.Equal(t, audit.StatusSuccess, e.Status)
	assert.Equal(t, "agent_42", e.Result)
	assert.True(t, json.Valid(e.Payload))

	assert.Equal(t, []string{"CreateAgent"}, pub.kinds)
}

func TestOperationServiceValidationStopsBeforeNode(t *testing.T) {
	exec := &fakeExecutor{}
	rec := &fakeRecorder{}
	svc := NewOperationService(exec, rec, nil, zap.NewNop())

	_, err := svc.CreateAgent(context.Background(), "", operation.CreateAgentParams{
		Strategy:       domain.StrategyTrading,
		InitialBalance: 10,
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, exec.calls)
	assert.Empty(t, rec.entries)
}

func TestOperationServiceUpstreamFailure(t *testing.T) {
	exec := &fakeExecutor{err: &domain.UpstreamError{StatusCode: 422, Body: "insufficient balance"}}
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	svc := NewOperationService(exec, rec, pub, zap.NewNop())

	_, err := svc.Transfer(context.Background(), "t", operation.TransferParams{ToAgent: "agent_1", Amount: 10})

	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 422, upErr.StatusCode)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.StatusFailed, rec.entries[0].Status)
	assert.Equal(t, 422, rec.entries[0].HTTPStatus)
	assert.Contains(t, rec.entries[0].Error, "insufficient balance")
	assert.Empty(t, pub.kinds, "failed writes do not signal the dashboard")
}

func TestOperationServicePublishFailureIsNotFatal(t *testing.T) {
	exec := &fakeExecutor{out: &node.Outcome{RequestID: "req_1"}}
	svc := NewOperationService(exec, nil, &fakePublisher{err: errors.New("redis down")}, zap.NewNop())

	out, err := svc.RequestService(context.Background(), "", operation.ServiceRequestParams{
		ProviderAgent: "agent_2", ServiceType: "price_feed", Payment: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "req_1", out.RequestID)
}

func TestAuthServiceGenerateToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(domain.Operator{Username: "ops", PasswordHash: string(hash)}, key, time.Hour)

	resp, err := svc.GenerateToken(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims := &domain.CustomClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.Scopes[domain.ScopeOperationsWrite])

	_, err = svc.GenerateToken(context.Background(), "ops", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.GenerateToken(context.Background(), "intruder", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOnboardingServiceMemory(t *testing.T) {
	svc := NewOnboardingService(nil)
	ctx := context.Background()

	seen, err := svc.Seen(ctx, "browser-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, svc.SetSeen(ctx, "browser-1", true))
	seen, err = svc.Seen(ctx, "browser-1")
	require.NoError(t, err)
	assert.True(t, seen)

	var vErr *domain.ValidationError
	assert.ErrorAs(t, svc.SetSeen(ctx, "a:b", true), &vErr)
	_, err = svc.Seen(ctx, " ")
	assert.ErrorAs(t, err, &vErr)
}

func TestJournalServiceWithoutDatabase(t *testing.T) {
	svc := NewJournalService(nil)
	assert.False(t, svc.Enabled())

	entries, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
