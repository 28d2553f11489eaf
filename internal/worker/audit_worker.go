package worker

import (
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/service"
)

// StartEventHandlers registers audit logging and status cache invalidation
// on the dispatcher.
func StartEventHandlers(dispatcher events.Dispatcher, audit *service.AuditService, status *service.StatusService) {
	if audit != nil {
		audit.RegisterHandlers()
	}
	if status != nil {
		status.RegisterHandlers(dispatcher)
	}
}
