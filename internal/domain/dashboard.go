package domain

// StatusCount is one row of the by-status aggregate.
type StatusCount struct {
	Status TicketStatus `json:"status"`
	Count  int64        `json:"count"`
}

// PriorityCount is one row of the by-priority aggregate.
type PriorityCount struct {
	Priority TicketPriority `json:"priority"`
	Count    int64          `json:"count"`
}

// DashboardSummary is the cached ticket aggregate. Its JSON form is the cache value.
type DashboardSummary struct {
	ByStatus   []StatusCount   `json:"by_status"`
	ByPriority []PriorityCount `json:"by_priority"`
}
