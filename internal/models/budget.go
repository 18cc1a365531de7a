package models

// DefaultAlertThreshold is the utilization percentage at which a budget
// alert fires when none is configured.
const DefaultAlertThreshold = 80

// Budget is a monthly spending limit, optionally scoped to one category.
// A nil CategoryID means the budget covers every expense of the month.
type Budget struct {
	Base
	UserID         string  `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID     *string `gorm:"type:uuid" json:"category_id,omitempty"`
	Name           string  `gorm:"not null" json:"name"`
	LimitAmount    int64   `gorm:"type:bigint;not null" json:"limit_amount"`
	Month          int     `gorm:"not null" json:"month"`
	Year           int     `gorm:"not null" json:"year"`
	AlertThreshold int     `gorm:"not null" json:"alert_threshold"`
	IsActive       bool    `gorm:"not null" json:"is_active"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// ScopeName returns the category name the budget applies to, or "General"
// for budgets that span all categories.
func (b *Budget) ScopeName() string {
	if b.Category != nil && b.Category.Name != "" {
		return b.Category.Name
	}
	return "General"
}
