package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"finanzas/internal/logger"
	"finanzas/internal/models"
)

// Audited actions.
const (
	AuditCreateBudget       = "CREATE_BUDGET"
	AuditUpdateBudget       = "UPDATE_BUDGET"
	AuditDeleteBudget       = "DELETE_BUDGET"
	AuditReadNotification   = "READ_NOTIFICATION"
	AuditReadAllNotices     = "READ_ALL_NOTIFICATIONS"
	AuditDeleteNotification = "DELETE_NOTIFICATION"
	AuditAppendNotification = "APPEND_NOTIFICATION"
	AuditCreateMovement     = "CREATE_MOVEMENT"
	AuditUpdateMovement     = "UPDATE_MOVEMENT"
	AuditDeleteMovement     = "DELETE_MOVEMENT"
	AuditDeleteCategory     = "DELETE_CATEGORY"
	AuditSetPrincipal       = "SET_PRINCIPAL_WORKSPACE"
	AuditDeleteWorkspace    = "DELETE_WORKSPACE"
	AuditRegister           = "REGISTER"
	AuditLogin              = "LOGIN"
)

// auditService writes the audit trail.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. It never fails the caller; write errors are
// only logged.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}

	if changes != nil {
		if data, err := json.Marshal(changes); err == nil {
			entry.Changes = string(data)
		} else {
			logger.Get().Warnw("audit changes are not serializable", "error", err, "action", action)
			entry.Changes = "{}"
		}
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to write audit entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}
