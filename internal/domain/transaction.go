package domain

import "time"

type TransactionType string

const (
	TxServicePayment TransactionType = "ServicePayment"
	TxTransfer       TransactionType = "Transfer"
	TxReward         TransactionType = "Reward"
	TxPenalty        TransactionType = "Penalty"
)

// Transaction неизменяема после получения.
type Transaction struct {
	ID              string          `json:"id"`
	FromAgent       string          `json:"fromAgent"`
	ToAgent         string          `json:"toAgent"`
	Amount          string          `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
	Timestamp       time.Time       `json:"timestamp"`
}

type ServiceStatus string

const (
	ServicePending    ServiceStatus = "Pending"
	ServiceAccepted   ServiceStatus = "Accepted"
	ServiceInProgress ServiceStatus = "InProgress"
	ServiceCompleted  ServiceStatus = "Completed"
	ServiceFailed     ServiceStatus = "Failed"
	ServiceDisputed   ServiceStatus = "Disputed"
)

type ServiceRequest struct {
	ID             string        `json:"id"`
	RequesterAgent string        `json:"requesterAgent"`
	ProviderAgent  string        `json:"providerAgent"`
	ServiceType    string        `json:"serviceType"`
	Parameters     string        `json:"parameters"`
	Payment        string        `json:"payment"`
	Status         ServiceStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
}

type MarketListing struct {
	AgentID               string  `json:"agentId"`
	ServiceType           string  `json:"serviceType"`
	Price                 string  `json:"price"`
	Capacity              uint32  `json:"capacity"`
	AverageCompletionTime uint64  `json:"averageCompletionTime"`
	SuccessRate           float64 `json:"successRate"`
}
