package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

// DefaultSinkTimeout bounds a single sink call when none is configured.
const DefaultSinkTimeout = 5 * time.Second

// NotificationService relays domain events to the configured sink.
type NotificationService struct {
	dispatcher  events.Dispatcher
	sink        events.Sink
	logger      *zap.Logger
	sendTimeout time.Duration
}

// NotificationDependencies wires the relay.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	Sink        events.Sink
	Logger      *zap.Logger
	SendTimeout time.Duration
}

// NewNotificationService creates the service. A nil sink discards events.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	if deps.Sink == nil {
		deps.Sink = events.NopSink{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.SendTimeout <= 0 {
		deps.SendTimeout = DefaultSinkTimeout
	}
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		sink:        deps.Sink,
		logger:      deps.Logger,
		sendTimeout: deps.SendTimeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.forward)
	n.dispatcher.Subscribe(events.EventCustomerDeleted, n.forward)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

// forward never fails the publishing request; sink errors are only logged.
// The sink gets its own deadline so a slow broker cannot expire the request context.
func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout)
	defer cancel()
	if err := n.sink.Send(sendCtx, event); err != nil {
		n.logger.Warn("event sink rejected event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}
