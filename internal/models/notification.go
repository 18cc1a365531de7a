package models

import "time"

// NotificationKind identifies what triggered a notification
type NotificationKind string

const (
	NotificationUpcomingDue    NotificationKind = "UPCOMING_DUE"
	NotificationDueToday       NotificationKind = "DUE_TODAY"
	NotificationPastDue        NotificationKind = "PAST_DUE"
	NotificationBudgetExceeded NotificationKind = "BUDGET_EXCEEDED"
	NotificationBudgetAlert    NotificationKind = "BUDGET_ALERT"
)

// IsBudgetKind reports whether the kind is raised by budget evaluation.
func (k NotificationKind) IsBudgetKind() bool {
	return k == NotificationBudgetExceeded || k == NotificationBudgetAlert
}

// IsValid reports whether k is one of the known kinds.
func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationUpcomingDue, NotificationDueToday, NotificationPastDue,
		NotificationBudgetExceeded, NotificationBudgetAlert:
		return true
	}
	return false
}

// Notification is an entry in a user's notification log. CreatedAt is set
// by the store when the row is appended and never changes afterwards.
type Notification struct {
	Base
	UserID     string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Title      string           `gorm:"not null" json:"title"`
	Message    string           `gorm:"size:500;not null" json:"message"`
	Kind       NotificationKind `gorm:"not null;index" json:"kind"`
	MovementID *string          `gorm:"type:uuid;index" json:"movement_id,omitempty"`
	BudgetID   *string          `gorm:"type:uuid;index" json:"budget_id,omitempty"`
	IsRead     bool             `gorm:"not null" json:"is_read"`
	ReadAt     *time.Time       `json:"read_at,omitempty"`
}
