package domain

import "time"

// StrategyKind — поведенческая категория агента на стороне ноды.
type StrategyKind string

const (
	StrategyTrading     StrategyKind = "Trading"
	StrategyOracle      StrategyKind = "Oracle"
	StrategyGovernance  StrategyKind = "Governance"
	StrategyMarketMaker StrategyKind = "MarketMaker"
)

// MaxReputation верхняя граница репутации, которую отдает нода.
const MaxReputation = 1000

// Strategies перечисляет допустимые теги в порядке, в котором их показывает UI.
func Strategies() []StrategyKind {
	return []StrategyKind{StrategyTrading, StrategyOracle, StrategyGovernance, StrategyMarketMaker}
}

func (k StrategyKind) Valid() bool {
	switch k {
	case StrategyTrading, StrategyOracle, StrategyGovernance, StrategyMarketMaker:
		return true
	}
	return false
}

// Agent — read-only копия агента из ноды. Живет один цикл обновления.
type Agent struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	StrategyType      StrategyKind `json:"strategyType"`
	Balance           string       `json:"balance"` // u128 в десятичной записи
	Reputation        uint64       `json:"reputation"`
	ServicesCompleted uint64       `json:"servicesCompleted"`
	ServicesFailed    uint64       `json:"servicesFailed"`
	SuccessRate       float64      `json:"successRate"` // проценты, считает нода
	IsActive          bool         `json:"isActive"`
	CreatedAt         time.Time    `json:"createdAt"`
	LastActive        time.Time    `json:"lastActive"`
}
