package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
)

// DefaultDedupWindow is how long a notification suppresses repeats of the
// same kind for the same subject.
const DefaultDedupWindow = 24 * time.Hour

// notificationDeduplicator answers whether a notification was already raised
// recently. Due-date kinds are keyed on the movement, budget kinds on the
// budget.
type notificationDeduplicator struct {
	db        *gorm.DB
	window    time.Duration
	publisher NotificationPublisher
	now       func() time.Time
}

// NewNotificationDeduplicator creates a NotificationDeduplicator. A
// non-positive window falls back to DefaultDedupWindow.
func NewNotificationDeduplicator(db *gorm.DB, window time.Duration, publisher NotificationPublisher) NotificationDeduplicator {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &notificationDeduplicator{db: db, window: window, publisher: publisher, now: time.Now}
}

// subjectColumn returns the column identifying the subject for kind.
func subjectColumn(kind models.NotificationKind) string {
	if kind.IsBudgetKind() {
		return "budget_id"
	}
	return "movement_id"
}

// subjectOf returns the subject id carried by n, or "" when it has none.
func subjectOf(n *models.Notification) string {
	ref := n.MovementID
	if n.Kind.IsBudgetKind() {
		ref = n.BudgetID
	}
	if ref == nil {
		return ""
	}
	return *ref
}

func (d *notificationDeduplicator) recentExists(tx *gorm.DB, subjectID string, kind models.NotificationKind, now time.Time) (bool, error) {
	var count int64
	err := tx.Model(&models.Notification{}).
		Where(subjectColumn(kind)+" = ? AND kind = ? AND created_at > ?", subjectID, kind, now.Add(-d.window).UTC()).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// ShouldEmit reports whether no notification of kind exists for subjectID
// created within the window before now. A missing subject always emits.
func (d *notificationDeduplicator) ShouldEmit(subjectID string, kind models.NotificationKind, now time.Time) (bool, error) {
	if subjectID == "" {
		return true, nil
	}
	exists, err := d.recentExists(d.db, subjectID, kind, now)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// EmitOnce appends n unless an equivalent notification is inside the window.
// The check and the insert share one transaction. It reports whether n was
// stored.
func (d *notificationDeduplicator) EmitOnce(n *models.Notification) (bool, error) {
	now := d.now()
	subjectID := subjectOf(n)

	emitted := false
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if subjectID != "" {
			exists, err := d.recentExists(tx, subjectID, n.Kind, now)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
		}
		if err := insertNotification(tx, n, now); err != nil {
			return err
		}
		emitted = true
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return false, err
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if emitted {
		publish(d.publisher, n)
	}
	return emitted, nil
}
