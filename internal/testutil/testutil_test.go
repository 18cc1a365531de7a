package testutil_test

import (
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "workspaces", "categories", "movements", "budgets", "notifications", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolation(t *testing.T) {
	db1 := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db1)
	db2 := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db2)

	testutil.CreateTestUser(t, db1)

	var count int64
	db2.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected isolated database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	now := time.Now().UTC()
	mov := testutil.CreateTestMovement(t, db, user.ID, &category.ID, models.MovementTypeExpense, 1500, now)
	if mov.Amount != 1500 || !mov.IsPaid {
		t.Errorf("expected paid movement of 1500, got %d paid=%v", mov.Amount, mov.IsPaid)
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, &category.ID, int(now.Month()), now.Year())
	if budget.LimitAmount != 100000 {
		t.Errorf("expected budget limit 100000, got %d", budget.LimitAmount)
	}

	n := testutil.CreateTestNotification(t, db, user.ID, models.NotificationBudgetAlert, now.Add(-time.Hour))
	if n.IsRead {
		t.Error("expected fixture notification to be unread")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrBudgetNotFound, "custom message")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestAssertAppErrorStatus(t *testing.T) {
	err := errors.Wrap(errors.ErrDuplicateBudget, stderrors.New("unique constraint"))
	testutil.AssertAppErrorStatus(t, err, "DUPLICATE_BUDGET", http.StatusConflict)

	testutil.AssertAppErrorStatus(t, errors.ErrPermissionDenied, "PERMISSION_DENIED", http.StatusForbidden)
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
