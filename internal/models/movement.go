package models

import "time"

// MovementType represents the direction of a movement
type MovementType string

const (
	MovementTypeIncome  MovementType = "income"
	MovementTypeExpense MovementType = "expense"
)

// Movement is a single income or expense entry. Amounts are stored in cents.
// Unpaid movements with a due date are picked up by the due-date scanner.
type Movement struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index" json:"user_id"`
	WorkspaceID *string      `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	CategoryID  *string      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type        MovementType `gorm:"not null" json:"type"`
	Description string       `gorm:"not null" json:"description"`
	Amount      int64        `gorm:"type:bigint;not null" json:"amount"`
	Date        time.Time    `gorm:"not null;index" json:"date"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	IsPaid      bool         `gorm:"not null" json:"is_paid"`

	// Relationships
	Category  *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}
