package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// CanTransition reports whether a ticket in status from may move to status to.
// CLOSED only accepts a redundant CLOSED.
func CanTransition(from, to TicketStatus) bool {
	if !to.Valid() {
		return false
	}
	if from.Terminal() {
		return to == from
	}
	return true
}

// TicketPriority enumerates urgency. It is fixed at creation.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          int64
	CustomerID  int64
	Title       string
	Description *string
	Priority    TicketPriority
	Status      TicketStatus
	AssignedTo  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
