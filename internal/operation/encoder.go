package operation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/xela07ax/agentmarket-console/internal/domain"
)

const (
	MinInitialBalance = 1000
	MinRiskLevel      = 1
	MaxRiskLevel      = 10

	// Значения по умолчанию для Trading, если форма их не прислала.
	DefaultRiskLevel = 5
	DefaultMinProfit = 100
)

// CreateAgentParams — пользовательское намерение "создать агента".
// RiskLevel и MinProfit учитываются только для Trading, ноль означает дефолт.
type CreateAgentParams struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Strategy       domain.StrategyKind `json:"strategy"`
	InitialBalance uint64              `json:"initialBalance"`
	RiskLevel      int                 `json:"riskLevel,omitempty"`
	MinProfit      uint64              `json:"minProfit,omitempty"`
}

type TransferParams struct {
	ToAgent string `json:"toAgent"`
	Amount  uint64 `json:"amount"`
}

type ServiceRequestParams struct {
	ProviderAgent string `json:"providerAgent"`
	ServiceType   string `json:"serviceType"`
	Parameters    string `json:"parameters"`
	Payment       uint64 `json:"payment"`
}

// EncodeCreateAgent — чистое преобразование, сети не касается.
func EncodeCreateAgent(p CreateAgentParams) (Operation, error) {
	if p.InitialBalance < MinInitialBalance {
		return Operation{}, &domain.ValidationError{
			Field:  "initialBalance",
			Reason: "must be at least " + strconv.Itoa(MinInitialBalance),
		}
	}

	var strategy Strategy
	switch p.Strategy {
	case domain.StrategyTrading:
		risk := p.RiskLevel
		if risk == 0 {
			risk = DefaultRiskLevel
		}
		if risk < MinRiskLevel || risk > MaxRiskLevel {
			return Operation{}, &domain.ValidationError{Field: "riskLevel", Reason: "must be within [1,10]"}
		}
		minProfit := p.MinProfit
		if minProfit == 0 {
			minProfit = DefaultMinProfit
		}
		strategy.Trading = &TradingParams{RiskLevel: uint8(risk), MinProfit: minProfit}
	case domain.StrategyOracle:
		strategy.Oracle = &Unit{}
	case domain.StrategyGovernance:
		strategy.Governance = &Unit{}
	case domain.StrategyMarketMaker:
		strategy.MarketMaker = &Unit{}
	default:
		return Operation{}, &domain.ValidationError{Field: "strategy", Reason: "unknown strategy " + strconv.Quote(string(p.Strategy))}
	}

	return Operation{CreateAgent: &CreateAgent{
		Name:           p.Name,
		Description:    p.Description,
		Strategy:       strategy,
		InitialBalance: p.InitialBalance,
	}}, nil
}

func EncodeTransfer(p TransferParams) Operation {
	return Operation{TransferTokens: &TransferTokens{ToAgent: p.ToAgent, Amount: p.Amount}}
}

func EncodeRequestService(p ServiceRequestParams) Operation {
	return Operation{RequestService: &RequestService{
		ProviderAgent: p.ProviderAgent,
		ServiceType:   p.ServiceType,
		Parameters:    p.Parameters,
		Payment:       p.Payment,
	}}
}

// ParseCreateAgentForm разбирает HTML-форму создания агента.
// Пустые числовые поля для риска и прибыли означают дефолт.
func ParseCreateAgentForm(v url.Values) (CreateAgentParams, error) {
	p := CreateAgentParams{
		Name:        strings.TrimSpace(v.Get("name")),
		Description: strings.TrimSpace(v.Get("description")),
		Strategy:    domain.StrategyKind(v.Get("strategy")),
	}

	var err error
	if p.InitialBalance, err = parseUint(v, "initialBalance", true); err != nil {
		return CreateAgentParams{}, err
	}
	risk, err := parseUint(v, "riskLevel", false)
	if err != nil {
		return CreateAgentParams{}, err
	}
	if risk > MaxRiskLevel {
		return CreateAgentParams{}, &domain.ValidationError{Field: "riskLevel", Reason: "must be within [1,10]"}
	}
	p.RiskLevel = int(risk)
	if p.MinProfit, err = parseUint(v, "minProfit", false); err != nil {
		return CreateAgentParams{}, err
	}
	return p, nil
}

func ParseTransferForm(v url.Values) (TransferParams, error) {
	amount, err := parseUint(v, "amount", true)
	if err != nil {
		return TransferParams{}, err
	}
	return TransferParams{ToAgent: strings.TrimSpace(v.Get("toAgent")), Amount: amount}, nil
}

func ParseServiceRequestForm(v url.Values) (ServiceRequestParams, error) {
	payment, err := parseUint(v, "payment", true)
	if err != nil {
		return ServiceRequestParams{}, err
	}
	return ServiceRequestParams{
		ProviderAgent: strings.TrimSpace(v.Get("providerAgent")),
		ServiceType:   strings.TrimSpace(v.Get("serviceType")),
		Parameters:    v.Get("parameters"),
		Payment:       payment,
	}, nil
}

func parseUint(v url.Values, field string, required bool) (uint64, error) {
	raw := strings.TrimSpace(v.Get(field))
	if raw == "" {
		if required {
			return 0, &domain.ValidationError{Field: field, Reason: "is required"}
		}
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a non-negative integer"}
	}
	return n, nil
}
