package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
	"finanzas/internal/models"
)

// DefaultUpcomingDueDays is how many days ahead an upcoming due notice is raised.
const DefaultUpcomingDueDays = 3

// dueDateScanner raises due-date notifications for unpaid movements.
type dueDateScanner struct {
	db           *gorm.DB
	dedup        NotificationDeduplicator
	upcomingDays int
}

// NewDueDateScanner creates a DueDateScanner.
func NewDueDateScanner(db *gorm.DB, dedup NotificationDeduplicator, upcomingDays int) DueDateScanner {
	if upcomingDays <= 0 {
		upcomingDays = DefaultUpcomingDueDays
	}
	return &dueDateScanner{db: db, dedup: dedup, upcomingDays: upcomingDays}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// formatAmount renders cents as a decimal amount.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// classifyDue returns the notification kind for a due date seen on today,
// or false when the movement is not yet close enough.
func classifyDue(due, today time.Time, upcomingDays int) (models.NotificationKind, int, bool) {
	days := int(startOfDay(due).Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return models.NotificationPastDue, days, true
	case days == 0:
		return models.NotificationDueToday, days, true
	case days == upcomingDays:
		return models.NotificationUpcomingDue, days, true
	}
	return "", days, false
}

func dueNotification(mov *models.Movement, kind models.NotificationKind, days int) *models.Notification {
	movementID := mov.ID
	n := &models.Notification{
		UserID:     mov.UserID,
		Kind:       kind,
		MovementID: &movementID,
	}
	amount := formatAmount(mov.Amount)
	switch kind {
	case models.NotificationUpcomingDue:
		n.Title = "Upcoming Due"
		n.Message = fmt.Sprintf("Movement '%s' is due in %d days (%s)", mov.Description, days, amount)
	case models.NotificationDueToday:
		n.Title = "Due Today!"
		n.Message = fmt.Sprintf("Movement '%s' is due today (%s)", mov.Description, amount)
	default:
		n.Title = "Past Due"
		n.Message = fmt.Sprintf("Movement '%s' is past due (%s)", mov.Description, amount)
	}
	return n
}

// Scan checks every unpaid movement with a due date against now and returns
// how many notifications were created. Failures on a single movement are
// logged and skipped.
func (s *dueDateScanner) Scan(now time.Time) (int, error) {
	today := startOfDay(now)
	horizon := today.AddDate(0, 0, s.upcomingDays+1)

	var movements []models.Movement
	if err := s.db.Where("is_paid = ? AND due_date IS NOT NULL AND due_date < ?", false, horizon).
		Order("due_date ASC").
		Find(&movements).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := 0
	for i := range movements {
		mov := &movements[i]
		kind, days, ok := classifyDue(*mov.DueDate, today, s.upcomingDays)
		if !ok {
			continue
		}

		emitted, err := s.dedup.EmitOnce(dueNotification(mov, kind, days))
		if err != nil {
			logger.Get().Errorw("failed to emit due-date notification",
				"error", err,
				"movement_id", mov.ID,
				"kind", kind,
			)
			continue
		}
		if emitted {
			created++
		}
	}

	logger.Get().Infow("due-date scan finished", "checked", len(movements), "created", created)
	return created, nil
}
