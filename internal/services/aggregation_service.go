package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
)

// aggregationService sums movements for budgets and dashboards.
type aggregationService struct {
	db *gorm.DB
}

// NewAggregationService creates a new AggregationProvider.
func NewAggregationService(db *gorm.DB) AggregationProvider {
	return &aggregationService{db: db}
}

// monthRange returns the half-open UTC interval [start, end) of a month.
func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func dayRange(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func (s *aggregationService) sum(filter SumFilter, paid bool, from, to *time.Time) (int64, error) {
	q := s.db.Model(&models.Movement{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND is_paid = ?", filter.UserID, filter.Type, paid)
	if filter.WorkspaceID != nil {
		q = q.Where("workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if from != nil {
		q = q.Where("date >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("date < ?", to.UTC())
	}

	var total int64
	if err := q.Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// SumPaidExpenses returns the paid expense total of a month. A nil
// categoryID sums every category.
func (s *aggregationService) SumPaidExpenses(userID string, categoryID *string, year, month int) (int64, error) {
	return s.SumPaidForMonth(SumFilter{
		UserID:     userID,
		Type:       models.MovementTypeExpense,
		CategoryID: categoryID,
	}, year, month)
}

// SumPaidForMonth returns the paid total for a calendar month.
func (s *aggregationService) SumPaidForMonth(filter SumFilter, year, month int) (int64, error) {
	from, to := monthRange(year, month)
	return s.sum(filter, true, &from, &to)
}

// SumPaidForDay returns the paid total for the UTC day containing day.
func (s *aggregationService) SumPaidForDay(filter SumFilter, day time.Time) (int64, error) {
	from, to := dayRange(day)
	return s.sum(filter, true, &from, &to)
}

// SumPaidForYear returns the paid total for a calendar year.
func (s *aggregationService) SumPaidForYear(filter SumFilter, year int) (int64, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	return s.sum(filter, true, &from, &to)
}

// SumPaidBetween returns the paid total with from <= date < to.
func (s *aggregationService) SumPaidBetween(filter SumFilter, from, to time.Time) (int64, error) {
	if !from.Before(to) {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must be before to")
	}
	return s.sum(filter, true, &from, &to)
}

// TotalsByCategory returns paid totals grouped by category and type,
// largest first. Movements without a category are reported as "Uncategorized".
func (s *aggregationService) TotalsByCategory(userID string, workspaceID *string) ([]CategoryTotal, error) {
	q := s.db.Model(&models.Movement{}).
		Select("movements.category_id AS category_id, COALESCE(categories.name, 'Uncategorized') AS category_name, movements.type AS type, SUM(movements.amount) AS total").
		Joins("LEFT JOIN categories ON categories.id = movements.category_id").
		Where("movements.user_id = ? AND movements.is_paid = ?", userID, true)
	if workspaceID != nil {
		q = q.Where("movements.workspace_id = ?", *workspaceID)
	}

	totals := []CategoryTotal{}
	if err := q.Group("movements.category_id, categories.name, movements.type").
		Order("total DESC").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return totals, nil
}

// Summary returns the user's all-time paid income and expense, the
// resulting balance and the still unpaid expense.
func (s *aggregationService) Summary(userID string, workspaceID *string) (*Summary, error) {
	filter := SumFilter{UserID: userID, WorkspaceID: workspaceID}

	filter.Type = models.MovementTypeIncome
	income, err := s.sum(filter, true, nil, nil)
	if err != nil {
		return nil, err
	}

	filter.Type = models.MovementTypeExpense
	expense, err := s.sum(filter, true, nil, nil)
	if err != nil {
		return nil, err
	}
	pending, err := s.sum(filter, false, nil, nil)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Income:      income,
		Expense:     expense,
		Balance:     income - expense,
		PendingDebt: pending,
	}, nil
}
