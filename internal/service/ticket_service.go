package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows and keeps the dashboard cache honest.
type TicketService struct {
	tickets    repository.TicketRepository
	customers  repository.CustomerRepository
	users      repository.UserRepository
	summary    SummaryInvalidator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CustomerRepo repository.CustomerRepository
	UserRepo     repository.UserRepository
	Summary      SummaryInvalidator
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CustomerID  int64
	Title       string
	Description *string
	Priority    domain.TicketPriority
	AssignedTo  *int64
}

// TicketStatusInput describes a status update. AssignedTo replaces the current
// assignee; nil unassigns.
type TicketStatusInput struct {
	Status     domain.TicketStatus
	AssignedTo *int64
}

// TicketListFilter describes optional listing filters.
type TicketListFilter struct {
	TicketID   *int64
	CustomerID *int64
	AssignedTo *int64
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		customers:  deps.CustomerRepo,
		users:      deps.UserRepo,
		summary:    deps.Summary,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket opens a ticket for an existing customer.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", map[string]any{"title": "Title is required"})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	exists, err := s.customers.Exists(ctx, input.CustomerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": input.CustomerID})
	}
	if input.AssignedTo != nil {
		if err := s.requireAgent(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		CustomerID:  input.CustomerID,
		Title:       title,
		Description: trimOptional(input.Description),
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		AssignedTo:  input.AssignedTo,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": input.CustomerID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.summary.Invalidate(ctx); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketCreated,
		TicketID:   ticket.ID,
		CustomerID: ticket.CustomerID,
		Payload: events.TicketCreatedPayload{
			Priority:   ticket.Priority,
			Title:      ticket.Title,
			AssignedTo: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets matching every provided filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *filter.Status})
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *filter.Priority})
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		TicketID:   filter.TicketID,
		CustomerID: filter.CustomerID,
		AssignedTo: filter.AssignedTo,
		Status:     filter.Status,
		Priority:   filter.Priority,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateStatus moves a ticket through its lifecycle and replaces its assignee.
// CLOSED is terminal.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID int64, input TicketStatusInput) (*domain.Ticket, error) {
	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(ticket.Status, input.Status) {
		return nil, apperrors.NewInvalidTransition("closed tickets cannot be reopened", map[string]any{
			"ticket_id": ticketID,
			"status":    ticket.Status,
		})
	}
	if input.AssignedTo != nil {
		if err := s.requireAgent(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	oldStatus := ticket.Status
	ticket.Status = input.Status
	ticket.AssignedTo = input.AssignedTo
	if err := s.tickets.UpdateStatus(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrTicketClosed) {
			return nil, apperrors.NewInvalidTransition("closed tickets cannot be reopened", map[string]any{
				"ticket_id": ticketID,
				"status":    domain.TicketStatusClosed,
			})
		}
		return nil, s.mapTicketError(err, ticketID)
	}
	if err := s.summary.Invalidate(ctx); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketStatusChanged,
		TicketID:   ticket.ID,
		CustomerID: ticket.CustomerID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  ticket.Status,
			AssignedTo: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// AssignTicket sets the ticket's assignee to an existing agent.
// Closed tickets keep their final assignee.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID, assignedTo int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, closedAssignError(ticketID)
	}
	if err := s.requireAgent(ctx, assignedTo); err != nil {
		return nil, err
	}

	oldAssignee := ticket.AssignedTo
	ticket.AssignedTo = &assignedTo
	if err := s.tickets.UpdateAssignee(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrTicketClosed) {
			return nil, closedAssignError(ticketID)
		}
		return nil, s.mapTicketError(err, ticketID)
	}
	if err := s.summary.Invalidate(ctx); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketAssigned,
		TicketID:   ticket.ID,
		CustomerID: ticket.CustomerID,
		Payload: events.TicketAssignedPayload{
			OldAssignee: oldAssignee,
			NewAssignee: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// DeleteTicket hard-deletes a ticket.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID int64) error {
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return s.mapTicketError(err, ticketID)
	}
	if err := s.summary.Invalidate(ctx); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{Type: events.EventTicketDeleted, TicketID: ticketID})
	return nil
}

func closedAssignError(ticketID int64) error {
	return apperrors.NewInvalidTransition("closed tickets cannot be reassigned", map[string]any{
		"ticket_id": ticketID,
	})
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapTicketError(err, ticketID)
	}
	return ticket, nil
}

// requireAgent checks that userID references an existing AGENT.
func (s *TicketService) requireAgent(ctx context.Context, userID int64) error {
	invalid := apperrors.NewValidationError("user must be a valid AGENT", map[string]any{"assigned_to": userID})
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return apperrors.MapError(err)
	}
	if user.Role != domain.RoleAgent {
		return invalid
	}
	return nil
}

func (s *TicketService) mapTicketError(err error, ticketID int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if errors.Is(err, repository.ErrMissingReference) {
		return apperrors.NewValidationError("user must be a valid AGENT", nil)
	}
	return apperrors.MapError(err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("ticket event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func trimOptional(val *string) *string {
	if val == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
