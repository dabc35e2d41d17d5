package node

const agentFields = `
		id
		name
		description
		strategyType
		balance
		reputation
		servicesCompleted
		servicesFailed
		successRate
		isActive
		createdAt
		lastActive`

const (
	queryMarketplaceStats = `
query {
	marketplaceStats {
		totalAgents
		activeAgents
		totalTransactions
		totalVolume
		averageReputation
	}
}`

	queryAgents = `
query {
	agents {` + agentFields + `
	}
}`

	queryActiveAgents = `
query {
	activeAgents {` + agentFields + `
	}
}`

	queryAgentsByStrategy = `
query GetAgentsByStrategy($strategyType: String!) {
	agentsByStrategy(strategyType: $strategyType) {` + agentFields + `
	}
}`

	queryTransactions = `
query GetTransactions($limit: Int) {
	transactions(limit: $limit) {
		id
		fromAgent
		toAgent
		amount
		transactionType
		timestamp
	}
}`

	queryPendingRequests = `
query {
	pendingRequests {
		id
		requesterAgent
		providerAgent
		serviceType
		parameters
		payment
		status
		createdAt
		completedAt
	}
}`

	queryMarketListings = `
query {
	marketListings {
		agentId
		serviceType
		price
		capacity
		averageCompletionTime
		successRate
	}
}`

	// queryPing — самый дешевый запрос, годится для проверки доступности.
	queryPing = `query { __typename }`
)
