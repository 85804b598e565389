package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerID  int64                 `json:"customer_id" validate:"required,gt=0"`
	Title       string                `json:"title" validate:"required,max=200"`
	Description *string               `json:"description"`
	Priority    domain.TicketPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	AssignedTo  *int64                `json:"assigned_to" validate:"omitempty,gt=0"`
}

// UpdateTicketRequest payload for PUT /tickets/:id/update. A null assigned_to
// unassigns the ticket.
type UpdateTicketRequest struct {
	Status     domain.TicketStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS CLOSED"`
	AssignedTo *int64              `json:"assigned_to" validate:"omitempty,gt=0"`
}

// AssignTicketRequest payload for PUT /tickets/:id/assign.
type AssignTicketRequest struct {
	AssignedTo int64 `json:"assigned_to" validate:"required,gt=0"`
}

// TicketResponse is the public ticket projection.
type TicketResponse struct {
	ID          int64                 `json:"id"`
	CustomerID  int64                 `json:"customer_id"`
	Title       string                `json:"title"`
	Description *string               `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	AssignedTo  *int64                `json:"assigned_to"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		CustomerID:  t.CustomerID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTicketListResponse maps a slice, never returning nil.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         int64                   `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   map[string]any          `json:"old_value,omitempty"`
	NewValue   map[string]any          `json:"new_value,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewTicketHistoryResponse maps audit entries, never returning nil.
func NewTicketHistoryResponse(entries []domain.TicketHistory) []TicketHistoryResponse {
	items := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, TicketHistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return items
}
