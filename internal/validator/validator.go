// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"finanzas/internal/models"
	"finanzas/internal/uuid"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("movement_type", validateMovementType)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("notification_kind", validateNotificationKind)
		_ = v.RegisterValidation("uuid_id", validateUUID)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateMovementType(fl validator.FieldLevel) bool {
	switch models.MovementType(fl.Field().String()) {
	case models.MovementTypeIncome, models.MovementTypeExpense:
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch models.CategoryType(fl.Field().String()) {
	case models.CategoryTypeIncome, models.CategoryTypeExpense:
		return true
	}
	return false
}

func validateNotificationKind(fl validator.FieldLevel) bool {
	return models.NotificationKind(fl.Field().String()).IsValid()
}

func validateUUID(fl validator.FieldLevel) bool {
	return uuid.IsValid(fl.Field().String())
}
