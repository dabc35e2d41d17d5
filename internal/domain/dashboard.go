package domain

import "time"

// ConnectionState выводится только из наличия GraphQL endpoint в конфиге,
// это не liveness-проба.
type ConnectionState string

const (
	Connected    ConnectionState = "Connected"
	Disconnected ConnectionState = "Disconnected"
)

func ConnectionFor(graphqlEndpoint string) ConnectionState {
	if graphqlEndpoint == "" {
		return Disconnected
	}
	return Connected
}

// Snapshot — набор результатов одного успешного цикла обновления.
// Поверхность заполняет только свои поля: чужие остаются nil и в JSON не
// попадают (omitzero), свои всегда не-nil, так что пустой список приходит как [].
type Snapshot struct {
	Stats           *MarketplaceStats `json:"stats,omitempty"`
	Agents          []Agent           `json:"agents,omitzero"`
	Transactions    []Transaction     `json:"transactions,omitzero"`
	Listings        []MarketListing   `json:"listings,omitzero"`
	PendingRequests []ServiceRequest  `json:"pendingRequests,omitzero"`
	FetchedAt       time.Time         `json:"fetchedAt"`
}

// TopAgents возвращает первые n агентов, как в блоке "Top Agents" дашборда.
func (s *Snapshot) TopAgents(n int) []Agent {
	if s == nil || n <= 0 {
		return nil
	}
	if len(s.Agents) <= n {
		return s.Agents
	}
	return s.Agents[:n]
}
