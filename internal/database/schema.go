package database

import (
	"fmt"

	"finanzas/internal/models"

	"gorm.io/gorm"
)

// AllModels is the list of GORM models making up the schema.
var AllModels = []interface{}{
	&models.User{},
	&models.Workspace{},
	&models.Category{},
	&models.Movement{},
	&models.Budget{},
	&models.Notification{},
	&models.AuditLog{},
}

// uniqueIndexes hold the constraints gorm tags cannot express. A budget with
// a NULL category never collides in a plain unique index, so general and
// category budgets get one partial index each. Mirrored in
// migrations/000002_budget_uniqueness.up.sql.
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_budgets_active_category
		ON budgets (user_id, category_id, month, year)
		WHERE is_active AND category_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_budgets_active_general
		ON budgets (user_id, month, year)
		WHERE is_active AND category_id IS NULL`,
}

// AutoMigrate creates the schema from the models plus the partial unique
// indexes. Used for local sqlite databases and tests; postgres deployments
// go through the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create unique index: %w", err)
		}
	}
	return nil
}
