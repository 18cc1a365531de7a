package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/middleware"
	"finanzas/internal/models"
	"finanzas/internal/services"
)

// fakeAggregates records which period query was used.
type fakeAggregates struct {
	services.AggregationProvider
	called string
	filter services.SumFilter
	total  int64
	byType map[models.MovementType]int64
	err    error
}

func (f *fakeAggregates) result(filter services.SumFilter) (int64, error) {
	if f.byType != nil {
		return f.byType[filter.Type], f.err
	}
	return f.total, f.err
}

func (f *fakeAggregates) SumPaidForMonth(filter services.SumFilter, _, _ int) (int64, error) {
	f.called, f.filter = "month", filter
	return f.result(filter)
}

func (f *fakeAggregates) SumPaidForDay(filter services.SumFilter, _ time.Time) (int64, error) {
	f.called, f.filter = "day", filter
	return f.result(filter)
}

func (f *fakeAggregates) SumPaidForYear(filter services.SumFilter, _ int) (int64, error) {
	f.called, f.filter = "year", filter
	return f.result(filter)
}

func (f *fakeAggregates) SumPaidBetween(filter services.SumFilter, _, _ time.Time) (int64, error) {
	f.called, f.filter = "between", filter
	return f.result(filter)
}

func (f *fakeAggregates) TotalsByCategory(_ string, _ *string) ([]services.CategoryTotal, error) {
	f.called = "categories"
	return []services.CategoryTotal{{CategoryName: "Food", Total: f.total}}, f.err
}

func (f *fakeAggregates) Summary(_ string, workspaceID *string) (*services.Summary, error) {
	f.called = "summary"
	f.filter.WorkspaceID = workspaceID
	return &services.Summary{Income: 500000, Expense: f.total, Balance: 500000 - f.total}, f.err
}

func setupSummaryRouter(agg services.AggregationProvider) *gin.Engine {
	h := NewSummaryHandler(agg)
	r := gin.New()
	auth := r.Group("/summary", injectUserID(testUserID))
	auth.GET("", h.GetSummary)
	auth.GET("/categories", h.GetCategoryTotals)
	auth.GET("/period", h.GetPeriodTotal)
	return r
}

func TestSummaryHandler_GetSummary(t *testing.T) {
	agg := &fakeAggregates{total: 120000}
	r := setupSummaryRouter(agg)

	rec := doRequest(r, "GET", "/summary?workspace_id="+testBudgetID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)["summary"].(map[string]interface{})
	if summary["balance"].(float64) != 380000 {
		t.Errorf("expected balance 380000, got %v", summary["balance"])
	}
	if agg.filter.WorkspaceID == nil || *agg.filter.WorkspaceID != testBudgetID {
		t.Error("expected workspace filter to be passed")
	}

	rec = doRequest(r, "GET", "/summary?workspace_id=home", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed workspace, got %d", rec.Code)
	}
}

func TestSummaryHandler_GetCategoryTotals(t *testing.T) {
	r := setupSummaryRouter(&fakeAggregates{total: 4200})

	rec := doRequest(r, "GET", "/summary/categories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	totals := parseJSON(t, rec)["totals"].([]interface{})
	if len(totals) != 1 {
		t.Fatalf("expected 1 total, got %d", len(totals))
	}
}

func TestSummaryHandler_GetPeriodTotal(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCall   string
	}{
		{name: "month", query: "type=expense&year=2025&month=3", wantStatus: http.StatusOK, wantCall: "month"},
		{name: "year", query: "type=income&year=2025", wantStatus: http.StatusOK, wantCall: "year"},
		{name: "default year", query: "type=income", wantStatus: http.StatusOK, wantCall: "year"},
		{name: "day", query: "type=expense&day=2025-03-10", wantStatus: http.StatusOK, wantCall: "day"},
		{name: "range", query: "type=expense&from_date=2025-03-01&to_date=2025-04-01", wantStatus: http.StatusOK, wantCall: "between"},
		{name: "balance month", query: "type=balance&year=2025&month=3", wantStatus: http.StatusOK, wantCall: "month"},
		{name: "missing type", query: "year=2025", wantStatus: http.StatusBadRequest},
		{name: "unknown type", query: "type=transfer&year=2025", wantStatus: http.StatusBadRequest},
		{name: "month out of range", query: "type=expense&month=13", wantStatus: http.StatusBadRequest},
		{name: "old year", query: "type=expense&year=1999", wantStatus: http.StatusBadRequest},
		{name: "half range", query: "type=expense&from_date=2025-03-01", wantStatus: http.StatusBadRequest},
		{name: "bad day", query: "type=expense&day=March", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregates{total: 4250}
			r := setupSummaryRouter(agg)

			rec := doRequest(r, "GET", "/summary/period?"+tt.query, "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if agg.called != tt.wantCall {
				t.Errorf("expected %q query, got %q", tt.wantCall, agg.called)
			}
			if tt.wantStatus == http.StatusOK {
				want := 4250.0
				if strings.HasPrefix(tt.query, "type=balance") {
					want = 0
				}
				if total := parseJSON(t, rec)["total"].(float64); total != want {
					t.Errorf("expected total %v, got %v", want, total)
				}
				if agg.filter.UserID != testUserID {
					t.Errorf("expected filter for %s, got %q", testUserID, agg.filter.UserID)
				}
			}
		})
	}

	t.Run("balance subtracts expense from income", func(t *testing.T) {
		agg := &fakeAggregates{byType: map[models.MovementType]int64{
			models.MovementTypeIncome:  500000,
			models.MovementTypeExpense: 120050,
		}}
		r := setupSummaryRouter(agg)

		rec := doRequest(r, "GET", "/summary/period?type=balance&day=2025-03-10&workspace_id="+testBudgetID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["type"] != "balance" {
			t.Errorf("expected type balance, got %v", body["type"])
		}
		if body["income"].(float64) != 500000 || body["expense"].(float64) != 120050 {
			t.Errorf("unexpected income/expense: %v / %v", body["income"], body["expense"])
		}
		if body["total"].(float64) != 379950 {
			t.Errorf("expected balance 379950, got %v", body["total"])
		}
		if agg.called != "day" {
			t.Errorf("expected day query, got %q", agg.called)
		}
		if agg.filter.WorkspaceID == nil || *agg.filter.WorkspaceID != testBudgetID {
			t.Error("expected workspace filter to be passed")
		}
	})

	t.Run("surfaces aggregation errors", func(t *testing.T) {
		agg := &fakeAggregates{err: errors.New("boom")}
		r := setupSummaryRouter(agg)

		rec := doRequest(r, "GET", "/summary/period?type=expense&year=2025", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

type fakeScanner struct {
	created int
	err     error
	at      time.Time
}

func (f *fakeScanner) Scan(now time.Time) (int, error) {
	f.at = now
	return f.created, f.err
}

func TestScanHandler_RunDueScan(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	setup := func(scanner services.DueDateScanner) *gin.Engine {
		h := NewScanHandler(scanner)
		h.now = func() time.Time { return fixed }
		r := gin.New()
		r.POST("/internal/scan", middleware.InternalAuthMiddleware("operator-key"), h.RunDueScan)
		return r
	}

	t.Run("runs scan with the current time", func(t *testing.T) {
		scanner := &fakeScanner{created: 3}
		r := setup(scanner)

		rec := doRequestWithHeader(r, "POST", "/internal/scan", "X-API-Key", "operator-key")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if created := parseJSON(t, rec)["created"].(float64); created != 3 {
			t.Errorf("expected 3 created, got %v", created)
		}
		if !scanner.at.Equal(fixed) {
			t.Errorf("scan ran at %v, want %v", scanner.at, fixed)
		}
	})

	t.Run("rejects missing key", func(t *testing.T) {
		scanner := &fakeScanner{}
		r := setup(scanner)

		rec := doRequest(r, "POST", "/internal/scan", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if !scanner.at.IsZero() {
			t.Error("scanner must not run without a key")
		}
	})

	t.Run("returns 500 on scan failure", func(t *testing.T) {
		r := setup(&fakeScanner{err: errors.New("db down")})

		rec := doRequestWithHeader(r, "POST", "/internal/scan", "X-API-Key", "operator-key")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
