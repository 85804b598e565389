package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketHistoryService records ticket events as audit entries and serves them back.
type TicketHistoryService struct {
	history    repository.TicketHistoryRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketHistoryDependencies bundles collaborators for the history service.
type TicketHistoryDependencies struct {
	HistoryRepo repository.TicketHistoryRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketHistoryService constructs the service.
func NewTicketHistoryService(deps TicketHistoryDependencies) *TicketHistoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketHistoryService{
		history:    deps.HistoryRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes the recorder to ticket events.
func (s *TicketHistoryService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketCreated, s.record)
	s.dispatcher.Subscribe(events.EventTicketStatusChanged, s.record)
	s.dispatcher.Subscribe(events.EventTicketAssigned, s.record)
}

// ListHistory returns a ticket's audit entries, oldest first.
func (s *TicketHistoryService) ListHistory(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketHistoryService) record(ctx context.Context, event events.Event) error {
	entry, ok := historyEntry(event)
	if !ok {
		return nil
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("ticket history write failed",
			zap.Int64("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

// historyEntry maps an event onto an audit entry; unrelated events yield false.
func historyEntry(event events.Event) (*domain.TicketHistory, bool) {
	entry := &domain.TicketHistory{TicketID: event.TicketID}
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		entry.ChangeType = domain.ChangeTypeCreated
		entry.NewValue = map[string]any{
			"status":      domain.TicketStatusOpen,
			"priority":    payload.Priority,
			"assigned_to": payload.AssignedTo,
		}
	case events.TicketStatusChangedPayload:
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{"status": payload.OldStatus}
		entry.NewValue = map[string]any{"status": payload.NewStatus, "assigned_to": payload.AssignedTo}
	case events.TicketAssignedPayload:
		entry.ChangeType = domain.ChangeTypeAssignee
		entry.OldValue = map[string]any{"assigned_to": payload.OldAssignee}
		entry.NewValue = map[string]any{"assigned_to": payload.NewAssignee}
	default:
		return nil, false
	}
	return entry, true
}
