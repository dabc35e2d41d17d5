package node

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xela07ax/agentmarket-console/internal/domain"
)

// Wire-структуры повторяют GraphQL-схему ноды. Все поля — указатели:
// отсутствующее поле отличается от нулевого, и validator отвергает ответ
// до того, как нетипизированные данные уйдут дальше.

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type statsWire struct {
	TotalAgents       *uint64  `json:"totalAgents" validate:"required"`
	ActiveAgents      *uint64  `json:"activeAgents" validate:"required"`
	TotalTransactions *uint64  `json:"totalTransactions" validate:"required"`
	TotalVolume       *string  `json:"totalVolume" validate:"required,numeric"`
	AverageReputation *float64 `json:"averageReputation" validate:"required,min=0,max=1000"`
}

func (w *statsWire) toDomain() *domain.MarketplaceStats {
	return &domain.MarketplaceStats{
		TotalAgents:       *w.TotalAgents,
		ActiveAgents:      *w.ActiveAgents,
		TotalTransactions: *w.TotalTransactions,
		TotalVolume:       *w.TotalVolume,
		AverageReputation: *w.AverageReputation,
	}
}

type agentWire struct {
	ID                *string  `json:"id" validate:"required"`
	Name              *string  `json:"name" validate:"required"`
	Description       *string  `json:"description" validate:"required"`
	StrategyType      *string  `json:"strategyType" validate:"required,oneof=Trading Oracle Governance MarketMaker"`
	Balance           *string  `json:"balance" validate:"required,numeric"`
	Reputation        *uint64  `json:"reputation" validate:"required,max=1000"`
	ServicesCompleted *uint64  `json:"servicesCompleted" validate:"required"`
	ServicesFailed    *uint64  `json:"servicesFailed" validate:"required"`
	SuccessRate       *float64 `json:"successRate" validate:"required,min=0,max=100"`
	IsActive          *bool    `json:"isActive" validate:"required"`
	CreatedAt         *int64   `json:"createdAt" validate:"required,min=0"`
	LastActive        *int64   `json:"lastActive" validate:"required,min=0"`
}

func (w *agentWire) toDomain() domain.Agent {
	return domain.Agent{
		ID:                *w.ID,
		Name:              *w.Name,
		Description:       *w.Description,
		StrategyType:      domain.StrategyKind(*w.StrategyType),
		Balance:           *w.Balance,
		Reputation:        *w.Reputation,
		ServicesCompleted: *w.ServicesCompleted,
		ServicesFailed:    *w.ServicesFailed,
		SuccessRate:       *w.SuccessRate,
		IsActive:          *w.IsActive,
		CreatedAt:         unix(*w.CreatedAt),
		LastActive:        unix(*w.LastActive),
	}
}

type transactionWire struct {
	ID              *string `json:"id" validate:"required"`
	FromAgent       *string `json:"fromAgent" validate:"required"`
	ToAgent         *string `json:"toAgent" validate:"required"`
	Amount          *string `json:"amount" validate:"required,numeric"`
	TransactionType *string `json:"transactionType" validate:"required,oneof=ServicePayment Transfer Reward Penalty"`
	Timestamp       *int64  `json:"timestamp" validate:"required,min=0"`
}

func (w *transactionWire) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:              *w.ID,
		FromAgent:       *w.FromAgent,
		ToAgent:         *w.ToAgent,
		Amount:          *w.Amount,
		TransactionType: domain.TransactionType(*w.TransactionType),
		Timestamp:       unix(*w.Timestamp),
	}
}

type serviceRequestWire struct {
	ID             *string `json:"id" validate:"required"`
	RequesterAgent *string `json:"requesterAgent" validate:"required"`
	ProviderAgent  *string `json:"providerAgent" validate:"required"`
	ServiceType    *string `json:"serviceType" validate:"required"`
	Parameters     *string `json:"parameters" validate:"required"`
	Payment        *string `json:"payment" validate:"required,numeric"`
	Status         *string `json:"status" validate:"required,oneof=Pending Accepted InProgress Completed Failed Disputed"`
	CreatedAt      *int64  `json:"createdAt" validate:"required,min=0"`
	CompletedAt    *int64  `json:"completedAt" validate:"omitempty,min=0"`
}

func (w *serviceRequestWire) toDomain() domain.ServiceRequest {
	r := domain.ServiceRequest{
		ID:             *w.ID,
		RequesterAgent: *w.RequesterAgent,
		ProviderAgent:  *w.ProviderAgent,
		ServiceType:    *w.ServiceType,
		Parameters:     *w.Parameters,
		Payment:        *w.Payment,
		Status:         domain.ServiceStatus(*w.Status),
		CreatedAt:      unix(*w.CreatedAt),
	}
	if w.CompletedAt != nil {
		t := unix(*w.CompletedAt)
		r.CompletedAt = &t
	}
	return r
}

type listingWire struct {
	AgentID               *string  `json:"agentId" validate:"required"`
	ServiceType           *string  `json:"serviceType" validate:"required"`
	Price                 *string  `json:"price" validate:"required,numeric"`
	Capacity              *uint32  `json:"capacity" validate:"required"`
	AverageCompletionTime *uint64  `json:"averageCompletionTime" validate:"required"`
	SuccessRate           *float64 `json:"successRate" validate:"required,min=0,max=100"`
}

func (w *listingWire) toDomain() domain.MarketListing {
	return domain.MarketListing{
		AgentID:               *w.AgentID,
		ServiceType:           *w.ServiceType,
		Price:                 *w.Price,
		Capacity:              *w.Capacity,
		AverageCompletionTime: *w.AverageCompletionTime,
		SuccessRate:           *w.SuccessRate,
	}
}

// Конверты data{...} для каждого запроса.

type statsResponse struct {
	MarketplaceStats *statsWire `json:"marketplaceStats" validate:"required"`
}

type agentsResponse struct {
	Agents []agentWire `json:"agents" validate:"required,dive"`
}

type activeAgentsResponse struct {
	ActiveAgents []agentWire `json:"activeAgents" validate:"required,dive"`
}

type agentsByStrategyResponse struct {
	AgentsByStrategy []agentWire `json:"agentsByStrategy" validate:"required,dive"`
}

type transactionsResponse struct {
	Transactions []transactionWire `json:"transactions" validate:"required,dive"`
}

type pendingRequestsResponse struct {
	PendingRequests []serviceRequestWire `json:"pendingRequests" validate:"required,dive"`
}

type listingsResponse struct {
	MarketListings []listingWire `json:"marketListings" validate:"required,dive"`
}

func agentsToDomain(ws []agentWire) []domain.Agent {
	out := make([]domain.Agent, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].toDomain())
	}
	return out
}

func unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
