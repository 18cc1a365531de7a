package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
)

// movementService handles income and expense entries.
type movementService struct {
	db *gorm.DB
}

// movementOrders are the accepted sort keys for movement listings.
var movementOrders = pagination.Orders{
	"date_desc":   "date DESC, created_at DESC",
	"date_asc":    "date ASC, created_at ASC",
	"amount_desc": "amount DESC, date DESC",
	"amount_asc":  "amount ASC, date DESC",
}

// NewMovementService creates a new MovementServicer.
func NewMovementService(db *gorm.DB) MovementServicer {
	return &movementService{db: db}
}

// resolveMovementInput validates a create or update payload and loads the
// owned category it points at.
func (s *movementService) resolveMovementInput(userID string, in *MovementInput) (*models.Category, error) {
	if in.Type != models.MovementTypeIncome && in.Type != models.MovementTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "movement type must be income or expense")
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if in.DueDate != nil && in.DueDate.Before(in.Date) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date cannot be before the movement date")
	}
	if in.CategoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", in.CategoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if in.WorkspaceID != nil && *in.WorkspaceID == "" {
		in.WorkspaceID = nil
	}
	if in.WorkspaceID != nil {
		var count int64
		if err := s.db.Model(&models.Workspace{}).
			Where("id = ? AND user_id = ?", *in.WorkspaceID, userID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrWorkspaceNotFound
		}
	}
	return &category, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// CreateMovement records a movement in one of the user's categories and,
// optionally, one of the user's workspaces.
func (s *movementService) CreateMovement(userID string, in MovementInput) (*models.Movement, error) {
	category, err := s.resolveMovementInput(userID, &in)
	if err != nil {
		return nil, err
	}

	mov := &models.Movement{
		UserID:      userID,
		WorkspaceID: in.WorkspaceID,
		CategoryID:  &category.ID,
		Type:        in.Type,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date.UTC(),
		DueDate:     utcPtr(in.DueDate),
		IsPaid:      in.IsPaid,
	}

	if err := s.db.Create(mov).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	mov.Category = category
	return mov, nil
}

// UpdateMovement replaces every writable field of a movement. It applies the
// same rules as CreateMovement.
func (s *movementService) UpdateMovement(userID, movementID string, in MovementInput) (*models.Movement, error) {
	mov, err := s.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	category, err := s.resolveMovementInput(userID, &in)
	if err != nil {
		return nil, err
	}

	due := utcPtr(in.DueDate)
	updates := map[string]interface{}{
		"type":         in.Type,
		"description":  in.Description,
		"amount":       in.Amount,
		"date":         in.Date.UTC(),
		"due_date":     due,
		"is_paid":      in.IsPaid,
		"category_id":  category.ID,
		"workspace_id": in.WorkspaceID,
	}
	if err := s.db.Model(&models.Movement{}).Where("id = ?", mov.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	mov.Type = in.Type
	mov.Description = in.Description
	mov.Amount = in.Amount
	mov.Date = in.Date.UTC()
	mov.DueDate = due
	mov.IsPaid = in.IsPaid
	mov.CategoryID = &category.ID
	mov.Category = category
	mov.WorkspaceID = in.WorkspaceID
	return mov, nil
}

// GetMovementByID retrieves a movement by ID for a specific user.
func (s *movementService) GetMovementByID(userID, movementID string) (*models.Movement, error) {
	var mov models.Movement
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", movementID, userID).
		First(&mov).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMovementNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &mov, nil
}

// GetUserMovements returns a filtered, paginated list of movements. The
// default order is newest first.
func (s *movementService) GetUserMovements(userID string, page pagination.PageRequest, filter MovementFilter) (*pagination.PageResponse[models.Movement], error) {
	page.Defaults()
	order, ok := movementOrders.Resolve(page.Sort, "date_desc")
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "sort must be one of date_desc, date_asc, amount_desc, amount_asc")
	}

	base := s.db.Model(&models.Movement{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.IsPaid != nil {
		base = base.Where("is_paid = ?", *filter.IsPaid)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.WorkspaceID != nil {
		base = base.Where("workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.FromDate != nil {
		base = base.Where("date >= ?", filter.FromDate.UTC())
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", filter.ToDate.UTC())
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var movements []models.Movement
	if err := base.Preload("Category").
		Order(order).
		Scopes(pagination.Paginate(page)).
		Find(&movements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(movements, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *movementService) setPaid(userID, movementID string, paid bool) (*models.Movement, error) {
	mov, err := s.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	if mov.IsPaid == paid {
		return mov, nil
	}
	if err := s.db.Model(&models.Movement{}).Where("id = ?", mov.ID).Update("is_paid", paid).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	mov.IsPaid = paid
	return mov, nil
}

// MarkPaid marks a movement as paid.
func (s *movementService) MarkPaid(userID, movementID string) (*models.Movement, error) {
	return s.setPaid(userID, movementID, true)
}

// MarkPending marks a movement as not yet paid.
func (s *movementService) MarkPending(userID, movementID string) (*models.Movement, error) {
	return s.setPaid(userID, movementID, false)
}

// DeleteMovement permanently removes a movement. Notifications about it
// keep their text but lose the reference.
func (s *movementService) DeleteMovement(userID, movementID string) error {
	mov, err := s.GetMovementByID(userID, movementID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Notification{}).
			Where("movement_id = ?", mov.ID).
			Update("movement_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Movement{}, "id = ?", mov.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
