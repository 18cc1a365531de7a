package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/models"
	"finanzas/internal/services"
	"finanzas/internal/testutil"
)

// TestBudgetNotificationFlow drives budgets and notifications through the
// HTTP layer against real services.
func TestBudgetNotificationFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	groceries := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	notifications := services.NewNotificationService(db, nil)
	dedup := services.NewNotificationDeduplicator(db, services.DefaultDedupWindow, nil)
	evaluator := services.NewBudgetEvaluator(services.NewAggregationService(db), dedup, true)
	budgets := services.NewBudgetService(db, evaluator)

	audit := &mockAuditService{}
	budgetHandler := NewBudgetHandler(budgets, audit)
	notificationHandler := NewNotificationHandler(notifications, audit)

	r := gin.New()
	auth := r.Group("", injectUserID(user.ID))
	auth.POST("/budgets", budgetHandler.CreateBudget)
	auth.GET("/budgets/:id", budgetHandler.GetBudget)
	auth.GET("/notifications", notificationHandler.GetNotifications)
	auth.GET("/notifications/unread/count", notificationHandler.CountUnread)

	march := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	rec := doRequest(r, "POST", "/budgets",
		fmt.Sprintf(`{"name":"Groceries","limit_amount":10000,"month":3,"year":2025,"category_id":%q}`, groceries.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := parseJSON(t, rec)["budget"].(map[string]interface{})
	budgetID := created["id"].(string)
	if created["alert_threshold"].(float64) != 80 {
		t.Errorf("expected default threshold 80, got %v", created["alert_threshold"])
	}

	notificationCount := func() int {
		t.Helper()
		rec := doRequest(r, "GET", "/notifications", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("list notifications: expected 200, got %d", rec.Code)
		}
		return len(parseJSON(t, rec)["notifications"].([]interface{}))
	}

	getBudget := func() map[string]interface{} {
		t.Helper()
		rec := doRequest(r, "GET", "/budgets/"+budgetID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get budget: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		return parseJSON(t, rec)["budget"].(map[string]interface{})
	}

	if n := notificationCount(); n != 0 {
		t.Fatalf("expected no notifications for an empty budget, got %d", n)
	}

	testutil.CreateTestMovement(t, db, user.ID, &groceries.ID, models.MovementTypeExpense, 8200, march)

	budget := getBudget()
	if budget["utilization_pct"].(float64) != 82 {
		t.Errorf("expected 82%% utilization, got %v", budget["utilization_pct"])
	}
	if budget["available"].(float64) != 1800 {
		t.Errorf("expected 1800 available, got %v", budget["available"])
	}
	if n := notificationCount(); n != 1 {
		t.Fatalf("expected one alert, got %d", n)
	}

	getBudget()
	if n := notificationCount(); n != 1 {
		t.Fatalf("expected repeated evaluation to stay at one notification, got %d", n)
	}

	testutil.CreateTestMovement(t, db, user.ID, &groceries.ID, models.MovementTypeExpense, 2000, march)

	budget = getBudget()
	if budget["utilization_pct"].(float64) != 102 {
		t.Errorf("expected 102%% utilization, got %v", budget["utilization_pct"])
	}
	if budget["available"].(float64) != -200 {
		t.Errorf("expected -200 available, got %v", budget["available"])
	}

	rec = doRequest(r, "GET", "/notifications", "")
	list := parseJSON(t, rec)["notifications"].([]interface{})
	if len(list) != 2 {
		t.Fatalf("expected alert and exceeded notifications, got %d", len(list))
	}
	latest := list[0].(map[string]interface{})
	if latest["kind"] != string(models.NotificationBudgetExceeded) {
		t.Errorf("expected newest to be BUDGET_EXCEEDED, got %v", latest["kind"])
	}
	if latest["budget_id"] != budgetID {
		t.Errorf("expected notification to reference budget %s, got %v", budgetID, latest["budget_id"])
	}

	rec = doRequest(r, "GET", "/notifications/unread/count", "")
	if count := parseJSON(t, rec)["count"].(float64); count != 2 {
		t.Errorf("expected 2 unread, got %v", count)
	}
}
