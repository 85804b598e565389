package worker

import (
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartHistoryRecorder subscribes the audit trail recorder to ticket events.
func StartHistoryRecorder(historyService *service.TicketHistoryService) {
	if historyService == nil {
		return
	}
	historyService.RegisterHandlers()
}
