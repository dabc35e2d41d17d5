package domain

// MarketplaceStats — производный срез агрегатов ноды, здесь не хранится.
type MarketplaceStats struct {
	TotalAgents       uint64  `json:"totalAgents"`
	ActiveAgents      uint64  `json:"activeAgents"`
	TotalTransactions uint64  `json:"totalTransactions"`
	TotalVolume       string  `json:"totalVolume"`
	AverageReputation float64 `json:"averageReputation"`
}
