package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"go.uber.org/zap"
)

// emptyQuerier отвечает пустыми списками: nil, как декодер при "[]" без элементов.
type emptyQuerier struct{}

func (emptyQuerier) MarketplaceStats(context.Context) (*domain.MarketplaceStats, error) {
	return &domain.MarketplaceStats{}, nil
}
func (emptyQuerier) Agents(context.Context) ([]domain.Agent, error) { return nil, nil }
func (emptyQuerier) Transactions(context.Context, int) ([]domain.Transaction, error) {
	return []domain.Transaction{}, nil
}
func (emptyQuerier) MarketListings(context.Context) ([]domain.MarketListing, error) { return nil, nil }
func (emptyQuerier) PendingRequests(context.Context) ([]domain.ServiceRequest, error) {
	return nil, nil
}

func TestReadySnapshotKeepsEmptyOwnedLists(t *testing.T) {
	tests := []struct {
		surface Surface
		present []string
		absent  []string
	}{
		{DashboardSurface(emptyQuerier{}, 0, 10), []string{"agents", "transactions"}, []string{"listings", "pendingRequests"}},
		{MarketplaceSurface(emptyQuerier{}), []string{"agents", "listings"}, []string{"transactions", "pendingRequests", "stats"}},
		{RequestsSurface(emptyQuerier{}), []string{"pendingRequests"}, []string{"agents", "transactions", "listings", "stats"}},
	}

	for _, tt := range tests {
		t.Run(tt.surface.Name, func(t *testing.T) {
			c := NewController(tt.surface, true, nil, zap.NewNop())
			c.Start(context.Background())
			defer c.Stop()
			st := waitStatus(t, c, StatusReady)

			data, err := json.Marshal(st)
			require.NoError(t, err)
			var decoded struct {
				Snapshot map[string]json.RawMessage `json:"snapshot"`
			}
			require.NoError(t, json.Unmarshal(data, &decoded))

			for _, key := range tt.present {
				require.Contains(t, decoded.Snapshot, key)
				assert.JSONEq(t, `[]`, string(decoded.Snapshot[key]), key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, decoded.Snapshot, key)
			}
		})
	}
}
