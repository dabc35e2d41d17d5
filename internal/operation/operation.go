package operation

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/xela07ax/agentmarket-console/internal/domain"
)

// Kind — тег варианта операции, совпадает с ключом во внешнем JSON-конверте.
type Kind string

const (
	KindCreateAgent    Kind = "CreateAgent"
	KindTransferTokens Kind = "TransferTokens"
	KindRequestService Kind = "RequestService"
)

var (
	ErrNoVariant       = errors.New("operation: no variant set")
	ErrSeveralVariants = errors.New("operation: more than one variant set")
)

// Operation — tagged union в формате externally tagged enum ноды:
// ровно один ключ верхнего уровня.
type Operation struct {
	CreateAgent    *CreateAgent    `json:"CreateAgent,omitempty"`
	TransferTokens *TransferTokens `json:"TransferTokens,omitempty"`
	RequestService *RequestService `json:"RequestService,omitempty"`
}

type CreateAgent struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Strategy       Strategy `json:"strategy"`
	InitialBalance uint64   `json:"initial_balance"`
}

type TransferTokens struct {
	ToAgent string `json:"to_agent"`
	Amount  uint64 `json:"amount"`
}

type RequestService struct {
	ProviderAgent string `json:"provider_agent"`
	ServiceType   string `json:"service_type"`
	Parameters    string `json:"parameters"`
	Payment       uint64 `json:"payment"`
}

// Kind возвращает тег заданного варианта или пустую строку.
func (o Operation) Kind() Kind {
	switch {
	case o.CreateAgent != nil:
		return KindCreateAgent
	case o.TransferTokens != nil:
		return KindTransferTokens
	case o.RequestService != nil:
		return KindRequestService
	}
	return ""
}

// Validate проверяет форму операции и те же границы, что и EncodeCreateAgent:
// сырой конверт из /api/execute-operation проходит ту же проверку, что и форма.
func (o Operation) Validate() error {
	if err := o.validateShape(); err != nil {
		return err
	}
	if c := o.CreateAgent; c != nil {
		if c.InitialBalance < MinInitialBalance {
			return &domain.ValidationError{
				Field:  "initial_balance",
				Reason: "must be at least " + strconv.Itoa(MinInitialBalance),
			}
		}
		if t := c.Strategy.Trading; t != nil && (t.RiskLevel < MinRiskLevel || t.RiskLevel > MaxRiskLevel) {
			return &domain.ValidationError{Field: "risk_level", Reason: "must be within [1,10]"}
		}
	}
	return nil
}

// validateShape — ровно один вариант операции и ровно один вариант стратегии.
func (o Operation) validateShape() error {
	n := 0
	for _, set := range []bool{o.CreateAgent != nil, o.TransferTokens != nil, o.RequestService != nil} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return ErrNoVariant
	case n > 1:
		return ErrSeveralVariants
	}
	if o.CreateAgent != nil {
		return o.CreateAgent.Strategy.Validate()
	}
	return nil
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	type plain Operation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	op := Operation(p)
	if err := op.validateShape(); err != nil {
		return err
	}
	*o = op
	return nil
}

// Unit — пустой payload варианта, сериализуется как {}.
type Unit struct{}

type TradingParams struct {
	RiskLevel uint8  `json:"risk_level"`
	MinProfit uint64 `json:"min_profit"`
}

// Strategy — вложенный tagged union. Параметры есть только у Trading.
type Strategy struct {
	Trading     *TradingParams `json:"Trading,omitempty"`
	Oracle      *Unit          `json:"Oracle,omitempty"`
	Governance  *Unit          `json:"Governance,omitempty"`
	MarketMaker *Unit          `json:"MarketMaker,omitempty"`
}

func (s Strategy) Kind() domain.StrategyKind {
	switch {
	case s.Trading != nil:
		return domain.StrategyTrading
	case s.Oracle != nil:
		return domain.StrategyOracle
	case s.Governance != nil:
		return domain.StrategyGovernance
	case s.MarketMaker != nil:
		return domain.StrategyMarketMaker
	}
	return ""
}

func (s Strategy) Validate() error {
	n := 0
	for _, set := range []bool{s.Trading != nil, s.Oracle != nil, s.Governance != nil, s.MarketMaker != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return &domain.ValidationError{Field: "strategy", Reason: "must have exactly one variant"}
	}
	return nil
}

func (s *Strategy) UnmarshalJSON(data []byte) error {
	type plain Strategy
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	st := Strategy(p)
	if err := st.Validate(); err != nil {
		return err
	}
	*s = st
	return nil
}
