package engine

import (
	"context"
	"time"

	"github.com/xela07ax/agentmarket-console/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	SurfaceDashboard   = "dashboard"
	SurfaceMarketplace = "marketplace"
	SurfaceRequests    = "requests"
)

// Querier — то, что поверхностям нужно от Query Client.
type Querier interface {
	MarketplaceStats(ctx context.Context) (*domain.MarketplaceStats, error)
	Agents(ctx context.Context) ([]domain.Agent, error)
	Transactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	MarketListings(ctx context.Context) ([]domain.MarketListing, error)
	PendingRequests(ctx context.Context) ([]domain.ServiceRequest, error)
}

// DashboardSurface: статистика + агенты + последние транзакции, три запроса параллельно.
func DashboardSurface(q Querier, interval time.Duration, txLimit int) Surface {
	return Surface{
		Name:     SurfaceDashboard,
		Interval: interval,
		Load: func(ctx context.Context) (*domain.Snapshot, error) {
			var (
				stats  *domain.MarketplaceStats
				agents []domain.Agent
				txs    []domain.Transaction
			)

			// Без WithContext: цикл завершается, только когда отработали все запросы
			var g errgroup.Group
			g.Go(func() (err error) {
				stats, err = q.MarketplaceStats(ctx)
				return err
			})
			g.Go(func() (err error) {
				agents, err = q.Agents(ctx)
				return err
			})
			g.Go(func() (err error) {
				txs, err = q.Transactions(ctx, txLimit)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}

			return &domain.Snapshot{
				Stats:        stats,
				Agents:       orEmpty(agents),
				Transactions: orEmpty(txs),
				FetchedAt:    time.Now(),
			}, nil
		},
	}
}

// MarketplaceSurface: каталог агентов и их листинги. Без таймера.
func MarketplaceSurface(q Querier) Surface {
	return Surface{
		Name: SurfaceMarketplace,
		Load: func(ctx context.Context) (*domain.Snapshot, error) {
			var (
				agents   []domain.Agent
				listings []domain.MarketListing
			)

			var g errgroup.Group
			g.Go(func() (err error) {
				agents, err = q.Agents(ctx)
				return err
			})
			g.Go(func() (err error) {
				listings, err = q.MarketListings(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}

			return &domain.Snapshot{Agents: orEmpty(agents), Listings: orEmpty(listings), FetchedAt: time.Now()}, nil
		},
	}
}

func RequestsSurface(q Querier) Surface {
	return Surface{
		Name: SurfaceRequests,
		Load: func(ctx context.Context) (*domain.Snapshot, error) {
			reqs, err := q.PendingRequests(ctx)
			if err != nil {
				return nil, err
			}
			return &domain.Snapshot{PendingRequests: orEmpty(reqs), FetchedAt: time.Now()}, nil
		},
	}
}

// orEmpty: Ready-снимок отдаёт свои списки как [], а не null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
