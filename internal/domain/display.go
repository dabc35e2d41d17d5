package domain

import (
	"math/big"
	"time"

	"github.com/dustin/go-humanize"
)

// Длины префикса и суффикса сокращенного идентификатора в карточках.
const (
	ShortIDHead = 6
	ShortIDTail = 4
)

// FormatTokens печатает десятичную сумму u128 с разделителями разрядов.
// Строка, которая не является целым числом, возвращается как есть.
func FormatTokens(amount string) string {
	n, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return amount
	}
	return humanize.BigComma(n)
}

// AgentView — агент, как его показывает карточка: сокращенный id,
// отформатированный баланс и давность последней активности.
type AgentView struct {
	Agent
	ShortID        string `json:"shortId"`
	DisplayBalance string `json:"displayBalance"`
	LastActiveAgo  string `json:"lastActiveAgo"`
}

func NewAgentView(a Agent, now time.Time) AgentView {
	// Нода не всегда досчитывает процент; восстанавливаем его по счетчикам
	if a.SuccessRate == 0 && a.ServicesCompleted+a.ServicesFailed > 0 {
		a.SuccessRate = SuccessRate(a.ServicesCompleted, a.ServicesFailed)
	}
	return AgentView{
		Agent:          a,
		ShortID:        TruncateAddress(a.ID, ShortIDHead, ShortIDTail),
		DisplayBalance: FormatTokens(a.Balance),
		LastActiveAgo:  TimeAgo(a.LastActive, now),
	}
}

func NewAgentViews(agents []Agent, now time.Time) []AgentView {
	out := make([]AgentView, 0, len(agents))
	for _, a := range agents {
		out = append(out, NewAgentView(a, now))
	}
	return out
}

type TransactionView struct {
	Transaction
	ShortFrom     string `json:"shortFrom"`
	ShortTo       string `json:"shortTo"`
	DisplayAmount string `json:"displayAmount"`
	Ago           string `json:"ago"`
}

func NewTransactionView(tx Transaction, now time.Time) TransactionView {
	return TransactionView{
		Transaction:   tx,
		ShortFrom:     TruncateAddress(tx.FromAgent, ShortIDHead, ShortIDTail),
		ShortTo:       TruncateAddress(tx.ToAgent, ShortIDHead, ShortIDTail),
		DisplayAmount: FormatTokens(tx.Amount),
		Ago:           TimeAgo(tx.Timestamp, now),
	}
}

// TopAgentsLimit — сколько агентов попадает в блок "Top Agents".
const TopAgentsLimit = 5

// DashboardView — готовая к отрисовке сводка дашборда из Ready-снимка.
type DashboardView struct {
	Stats              *MarketplaceStats `json:"stats"`
	DisplayVolume      string            `json:"displayVolume"`
	TopAgents          []AgentView       `json:"topAgents"`
	RecentTransactions []TransactionView `json:"recentTransactions"`
	FetchedAt          time.Time         `json:"fetchedAt"`
}

// NewDashboardView возвращает nil, пока снимка нет.
func NewDashboardView(s *Snapshot, now time.Time) *DashboardView {
	if s == nil {
		return nil
	}
	v := &DashboardView{
		Stats:              s.Stats,
		TopAgents:          NewAgentViews(s.TopAgents(TopAgentsLimit), now),
		RecentTransactions: make([]TransactionView, 0, len(s.Transactions)),
		FetchedAt:          s.FetchedAt,
	}
	if s.Stats != nil {
		v.DisplayVolume = FormatTokens(s.Stats.TotalVolume)
	}
	for _, tx := range s.Transactions {
		v.RecentTransactions = append(v.RecentTransactions, NewTransactionView(tx, now))
	}
	return v
}
