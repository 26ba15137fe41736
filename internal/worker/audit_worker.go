package worker

import (
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/service"
)

// StartAuditWorker registers audit handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
