package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
	"finanzas/internal/models"
)

// notificationService is the append-mostly store of user notifications.
type notificationService struct {
	db        *gorm.DB
	publisher NotificationPublisher
	now       func() time.Time
}

// NewNotificationService creates a new NotificationServicer. A nil publisher
// disables fan-out.
func NewNotificationService(db *gorm.DB, publisher NotificationPublisher) NotificationServicer {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &notificationService{db: db, publisher: publisher, now: time.Now}
}

// insertNotification appends n inside tx. The creation time always comes from
// now, and the read state always starts cleared.
func insertNotification(tx *gorm.DB, n *models.Notification, now time.Time) error {
	if n.UserID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "notification user is required")
	}
	if !n.Kind.IsValid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown notification kind")
	}
	if n.Title == "" || n.Message == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "notification title and message are required")
	}

	n.ID = ""
	n.CreatedAt = now.UTC()
	n.UpdatedAt = n.CreatedAt
	n.IsRead = false
	n.ReadAt = nil

	if err := tx.Create(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// publish fans n out. Failures never affect the stored notification.
func publish(p NotificationPublisher, n *models.Notification) {
	if err := p.PublishNotification(context.Background(), n); err != nil {
		logger.Get().Warnw("failed to publish notification",
			"error", err,
			"notification_id", n.ID,
			"kind", n.Kind,
		)
	}
}

// Append stores a new notification for an existing user.
func (s *notificationService) Append(n *models.Notification) (*models.Notification, error) {
	if n.UserID != "" {
		var count int64
		if err := s.db.Model(&models.User{}).Where("id = ?", n.UserID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrUserNotFound
		}
	}
	if err := insertNotification(s.db, n, s.now()); err != nil {
		return nil, err
	}
	publish(s.publisher, n)
	return n, nil
}

// ListAll returns every notification of the user, newest first. A non-empty
// kind restricts the list to that kind.
func (s *notificationService) ListAll(userID string, kind models.NotificationKind) ([]models.Notification, error) {
	return s.list(s.db.Where("user_id = ?", userID), kind)
}

// ListUnread returns the user's unread notifications, newest first.
func (s *notificationService) ListUnread(userID string, kind models.NotificationKind) ([]models.Notification, error) {
	return s.list(s.db.Where("user_id = ? AND is_read = ?", userID, false), kind)
}

func (s *notificationService) list(q *gorm.DB, kind models.NotificationKind) ([]models.Notification, error) {
	if kind != "" {
		if !kind.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown notification kind")
		}
		q = q.Where("kind = ?", kind)
	}
	notifications := []models.Notification{}
	if err := q.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications of the user.
func (s *notificationService) CountUnread(userID string) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// getOwned loads a notification and checks that it belongs to userID.
func (s *notificationService) getOwned(userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ?", notificationID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if n.UserID != userID {
		return nil, apperrors.ErrPermissionDenied
	}
	return &n, nil
}

// MarkRead marks one notification as read. Marking an already read
// notification is a no-op that keeps its original read time.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	n, err := s.getOwned(userID, notificationID)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}

	readAt := s.now().UTC()
	if err := s.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", n.ID, false).
		UpdateColumns(map[string]interface{}{"is_read": true, "read_at": readAt}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	n.IsRead = true
	n.ReadAt = &readAt
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many were changed.
func (s *notificationService) MarkAllRead(userID string) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumns(map[string]interface{}{"is_read": true, "read_at": s.now().UTC()})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes one notification.
func (s *notificationService) Delete(userID, notificationID string) error {
	n, err := s.getOwned(userID, notificationID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// NopPublisher discards notifications.
type NopPublisher struct{}

// PublishNotification implements NotificationPublisher.
func (NopPublisher) PublishNotification(context.Context, *models.Notification) error { return nil }
