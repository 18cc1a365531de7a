package services

import (
	"fmt"

	"finanzas/internal/logger"
	"finanzas/internal/models"
)

// budgetEvaluator derives budget state from paid expenses and raises
// threshold notifications for active budgets.
type budgetEvaluator struct {
	aggregates     AggregationProvider
	dedup          NotificationDeduplicator
	categoryScoped bool
}

// NewBudgetEvaluator creates a BudgetEvaluator. With categoryScoped false the
// spend of a category budget is the whole month's expense total.
func NewBudgetEvaluator(aggregates AggregationProvider, dedup NotificationDeduplicator, categoryScoped bool) BudgetEvaluator {
	return &budgetEvaluator{aggregates: aggregates, dedup: dedup, categoryScoped: categoryScoped}
}

// UtilizationPct returns spent as a percentage of limit rounded half-up to
// two decimals, or 0 when limit is not positive.
func UtilizationPct(spent, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	// hundredths of a percent, rounded half away from zero
	num := spent * 20000
	hundredths := (num + limit) / (2 * limit)
	if num < 0 {
		hundredths = (num - limit) / (2 * limit)
	}
	return float64(hundredths) / 100
}

// DecideBudgetNotification picks the notification kind for a utilization.
// It returns false when the budget is below its alert threshold.
func DecideBudgetNotification(pct float64, threshold int) (models.NotificationKind, bool) {
	if threshold <= 0 {
		threshold = models.DefaultAlertThreshold
	}
	switch {
	case pct >= 100:
		return models.NotificationBudgetExceeded, true
	case pct >= float64(threshold):
		return models.NotificationBudgetAlert, true
	}
	return "", false
}

// Evaluate computes the state of budget. Notification failures are logged
// and do not fail the evaluation.
func (e *budgetEvaluator) Evaluate(budget *models.Budget) (*BudgetState, error) {
	var categoryID *string
	if e.categoryScoped {
		categoryID = budget.CategoryID
	}

	spent, err := e.aggregates.SumPaidExpenses(budget.UserID, categoryID, budget.Year, budget.Month)
	if err != nil {
		return nil, err
	}

	state := &BudgetState{
		Spent:          spent,
		Available:      budget.LimitAmount - spent,
		UtilizationPct: UtilizationPct(spent, budget.LimitAmount),
	}

	if budget.IsActive {
		e.notify(budget, state)
	}
	return state, nil
}

func (e *budgetEvaluator) notify(budget *models.Budget, state *BudgetState) {
	kind, ok := DecideBudgetNotification(state.UtilizationPct, budget.AlertThreshold)
	if !ok || e.dedup == nil {
		return
	}

	budgetID := budget.ID
	n := &models.Notification{
		UserID:   budget.UserID,
		Kind:     kind,
		BudgetID: &budgetID,
	}
	if kind == models.NotificationBudgetExceeded {
		n.Title = "Budget Exceeded!"
		n.Message = fmt.Sprintf("Budget '%s' (%s) has been exceeded", budget.Name, budget.ScopeName())
	} else {
		n.Title = "Budget Alert"
		n.Message = fmt.Sprintf("Budget '%s' (%s) is at %.0f%% of its limit", budget.Name, budget.ScopeName(), state.UtilizationPct)
	}

	emitted, err := e.dedup.EmitOnce(n)
	if err != nil {
		logger.Get().Errorw("failed to emit budget notification",
			"error", err,
			"budget_id", budget.ID,
			"kind", kind,
		)
		return
	}
	if emitted {
		logger.Get().Infow("budget notification created", "budget_id", budget.ID, "kind", kind)
	}
}
