package models

// Workspace is an isolated financial context (household, business, trip)
// that movements can be filed under.
type Workspace struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	IsPrincipal bool   `gorm:"not null" json:"is_principal"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// DefaultWorkspaceColor is used when a workspace is created without a color.
const DefaultWorkspaceColor = "#6366f1"
