package worker

import (
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a
// forwarder is given, relays every event to Redis.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, forwarder *events.RedisForwarder) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if forwarder != nil {
		forwarder.Register(dispatcher)
	}
}
