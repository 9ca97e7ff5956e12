package worker

import (
	"github.com/spec-kit/fixpoint/internal/service"
)

// StartNotificationWorker registers notification handlers and returns a
// func that removes them.
func StartNotificationWorker(notificationService *service.NotificationService) func() {
	if notificationService == nil {
		return func() {}
	}
	return notificationService.RegisterHandlers()
}
