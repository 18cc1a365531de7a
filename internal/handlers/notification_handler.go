package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finanzas/internal/models"
	"finanzas/internal/services"
)

// NotificationHandler exposes the authenticated user's notification log.
type NotificationHandler struct {
	notificationService services.NotificationServicer
	auditService        services.AuditServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer, auditService services.AuditServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, auditService: auditService}
}

// UnreadCountResponse carries the number of unread notifications.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse reports how many notifications were marked read.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NotificationListQuery narrows a notification listing.
type NotificationListQuery struct {
	Kind string `form:"kind" binding:"omitempty,notification_kind"`
}

// AppendNotificationRequest is an operator-issued notification for one user.
type AppendNotificationRequest struct {
	UserID  string `json:"user_id" binding:"required,uuid_id"`
	Kind    string `json:"kind" binding:"required,notification_kind"`
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=1000"`
}

// GetNotifications lists every notification, newest first.
// @Summary     Get notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       kind query string false "Notification kind (UPCOMING_DUE, DUE_TODAY, PAST_DUE, BUDGET_EXCEEDED, BUDGET_ALERT)"
// @Success     200 {array}  models.Notification "Notifications"
// @Failure     400 {object} ErrorResponse "Unknown kind"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	h.list(c, h.notificationService.ListAll)
}

// GetUnreadNotifications lists unread notifications, newest first.
// @Summary     Get unread notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       kind query string false "Notification kind"
// @Success     200 {array}  models.Notification "Unread notifications"
// @Failure     400 {object} ErrorResponse "Unknown kind"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/unread [get]
func (h *NotificationHandler) GetUnreadNotifications(c *gin.Context) {
	h.list(c, h.notificationService.ListUnread)
}

func (h *NotificationHandler) list(c *gin.Context, fetch func(userID string, kind models.NotificationKind) ([]models.Notification, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query NotificationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	notifications, err := fetch(userID, models.NotificationKind(query.Kind))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// CountUnread returns the number of unread notifications.
// @Summary     Count unread notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UnreadCountResponse "Unread count"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/unread/count [get]
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.notificationService.CountUnread(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead marks one notification as read. Marking an already read
// notification succeeds and keeps its original read time.
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.Notification "Updated notification"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Notification belongs to another user"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	notification, err := h.notificationService.MarkRead(userID, notificationID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditReadNotification, "notification", notificationID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllRead marks every unread notification of the user as read.
// @Summary     Mark all notifications read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MarkAllReadResponse "Number of notifications updated"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/read-all [patch]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	updated, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditReadAllNotices, "notification", "", c.ClientIP(),
		map[string]interface{}{"updated": updated})

	c.JSON(http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// DeleteNotification removes a notification.
// @Summary     Delete notification
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} MessageResponse "Notification deleted"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Notification belongs to another user"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.notificationService.Delete(userID, notificationID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteNotification, "notification", notificationID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Notification deleted successfully"})
}

// AppendNotification stores an operator-issued notification for a user and
// fans it out like any other notification.
// @Summary     Append notification
// @Tags        internal
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string                    true "Internal API key"
// @Param       request   body   AppendNotificationRequest true "Notification"
// @Success     201 {object} models.Notification "Stored notification"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Failure     503 {object} ErrorResponse "Internal endpoints not configured"
// @Router      /internal/notifications [post]
func (h *NotificationHandler) AppendNotification(c *gin.Context) {
	var req AppendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	notification, err := h.notificationService.Append(&models.Notification{
		UserID:  req.UserID,
		Kind:    models.NotificationKind(req.Kind),
		Title:   strings.TrimSpace(req.Title),
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(req.UserID, services.AuditAppendNotification, "notification", notification.ID, c.ClientIP(),
		map[string]interface{}{"kind": notification.Kind})

	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}
