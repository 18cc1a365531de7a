package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
)

const (
	maxBudgetNameLength = 100
	minBudgetYear       = 2000
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db        *gorm.DB
	evaluator BudgetEvaluator
	now       func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, evaluator BudgetEvaluator) BudgetServicer {
	return &budgetService{db: db, evaluator: evaluator, now: time.Now}
}

// normalize validates in and fills defaults.
func (in *BudgetInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || utf8.RuneCountInString(in.Name) > maxBudgetNameLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name must be between 1 and 100 characters")
	}
	if in.LimitAmount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget limit must be greater than zero")
	}
	if in.Month < 1 || in.Month > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if in.Year < minBudgetYear {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be 2000 or later")
	}
	if in.AlertThreshold == 0 {
		in.AlertThreshold = models.DefaultAlertThreshold
	}
	if in.AlertThreshold < 1 || in.AlertThreshold > 100 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 1 and 100")
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	return nil
}

// loadCategory returns the category when it exists and belongs to userID.
func (s *budgetService) loadCategory(userID string, categoryID *string) (*models.Category, error) {
	if categoryID == nil {
		return nil, nil
	}
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// checkDuplicate fails when another active budget covers the same category
// and month. excludeID skips the budget being updated.
func (s *budgetService) checkDuplicate(userID string, categoryID *string, month, year int, excludeID string) error {
	q := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND month = ? AND year = ? AND is_active = ?", userID, month, year, true)
	if categoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *categoryID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}

// translateWriteError maps unique index violations to DUPLICATE_BUDGET.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrDuplicateBudget
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func (s *budgetService) view(budget *models.Budget) (*BudgetView, error) {
	state, err := s.evaluator.Evaluate(budget)
	if err != nil {
		return nil, err
	}
	return &BudgetView{Budget: *budget, BudgetState: *state}, nil
}

func (s *budgetService) views(budgets []models.Budget) ([]BudgetView, error) {
	views := make([]BudgetView, 0, len(budgets))
	for i := range budgets {
		v, err := s.view(&budgets[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// CreateBudget creates a new budget for a month, optionally scoped to a category.
func (s *budgetService) CreateBudget(userID string, in BudgetInput) (*BudgetView, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	category, err := s.loadCategory(userID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	if isActive {
		if err := s.checkDuplicate(userID, in.CategoryID, in.Month, in.Year, ""); err != nil {
			return nil, err
		}
	}

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     in.CategoryID,
		Name:           in.Name,
		LimitAmount:    in.LimitAmount,
		Month:          in.Month,
		Year:           in.Year,
		AlertThreshold: in.AlertThreshold,
		IsActive:       isActive,
	}
	if err := s.db.Omit("Category").Create(budget).Error; err != nil {
		return nil, translateWriteError(err)
	}

	budget.Category = category
	return s.view(budget)
}

func (s *budgetService) list(q *gorm.DB) ([]BudgetView, error) {
	var budgets []models.Budget
	if err := q.Preload("Category").
		Order("year DESC, month DESC, created_at DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.views(budgets)
}

// GetUserBudgets returns every budget of the user.
func (s *budgetService) GetUserBudgets(userID string) ([]BudgetView, error) {
	return s.list(s.db.Where("user_id = ?", userID))
}

// GetActiveBudgets returns the user's active budgets.
func (s *budgetService) GetActiveBudgets(userID string) ([]BudgetView, error) {
	return s.list(s.db.Where("user_id = ? AND is_active = ?", userID, true))
}

// GetCurrentMonthBudgets returns the user's active budgets for the current month.
func (s *budgetService) GetCurrentMonthBudgets(userID string) ([]BudgetView, error) {
	now := s.now().UTC()
	return s.list(s.db.Where("user_id = ? AND is_active = ? AND month = ? AND year = ?",
		userID, true, int(now.Month()), now.Year()))
}

// getOwned loads a budget and checks that it belongs to userID.
func (s *budgetService) getOwned(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if budget.UserID != userID {
		return nil, apperrors.ErrPermissionDenied
	}
	return &budget, nil
}

// GetBudgetByID returns a budget with its current state.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*BudgetView, error) {
	budget, err := s.getOwned(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.view(budget)
}

// UpdateBudget replaces the writable fields of a budget. A nil IsActive
// keeps the current active flag.
func (s *budgetService) UpdateBudget(userID, budgetID string, in BudgetInput) (*BudgetView, error) {
	budget, err := s.getOwned(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	category, err := s.loadCategory(userID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	isActive := budget.IsActive
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	if isActive {
		if err := s.checkDuplicate(userID, in.CategoryID, in.Month, in.Year, budget.ID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"name":            in.Name,
		"limit_amount":    in.LimitAmount,
		"month":           in.Month,
		"year":            in.Year,
		"category_id":     in.CategoryID,
		"alert_threshold": in.AlertThreshold,
		"is_active":       isActive,
	}
	if err := s.db.Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(updates).Error; err != nil {
		return nil, translateWriteError(err)
	}

	budget.Name = in.Name
	budget.LimitAmount = in.LimitAmount
	budget.Month = in.Month
	budget.Year = in.Year
	budget.CategoryID = in.CategoryID
	budget.Category = category
	budget.AlertThreshold = in.AlertThreshold
	budget.IsActive = isActive
	return s.view(budget)
}

// DeleteBudget permanently removes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.getOwned(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
