package worker

import (
	"github.com/spec-kit/recognition-wall/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher
// so shout-outs, reactions, comments and moderation outcomes reach inboxes.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
