package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/services"
)

// SummaryHandler serves aggregated totals over paid movements.
type SummaryHandler struct {
	aggregates services.AggregationProvider
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(aggregates services.AggregationProvider) *SummaryHandler {
	return &SummaryHandler{aggregates: aggregates}
}

// periodBalance asks GetPeriodTotal for paid income minus paid expense.
const periodBalance = "balance"

// PeriodTotalResponse is a paid total for a period. Only the fields that
// describe the requested period are set. Income and Expense are set for
// balance requests.
type PeriodTotalResponse struct {
	Type    string     `json:"type"`
	Year    int        `json:"year,omitempty"`
	Month   int        `json:"month,omitempty"`
	Day     *time.Time `json:"day,omitempty"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Income  *int64     `json:"income,omitempty"`
	Expense *int64     `json:"expense,omitempty"`
	Total   int64      `json:"total"`
}

// GetSummary returns all-time income, expense, balance and pending debt.
// @Summary     Get financial summary
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Param       workspace_id query string false "Restrict to a workspace"
// @Success     200 {object} services.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /summary [get]
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaceID, err := parseOptionalID(c, "workspace_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.aggregates.Summary(userID, workspaceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetCategoryTotals returns paid totals grouped by category.
// @Summary     Get totals by category
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Param       workspace_id query string false "Restrict to a workspace"
// @Success     200 {array}  services.CategoryTotal "Totals by category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /summary/categories [get]
func (h *SummaryHandler) GetCategoryTotals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaceID, err := parseOptionalID(c, "workspace_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.aggregates.TotalsByCategory(userID, workspaceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// GetPeriodTotal returns the paid total of one movement type for a period,
// or with type=balance the paid income minus paid expense.
// The period is, in order of precedence, a from_date/to_date range, a single
// day, a month of a year, or a whole year. Year defaults to the current year.
// @Summary     Get period total
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Param       type         query string true  "income, expense or balance"
// @Param       from_date    query string false "Range start, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param       to_date      query string false "Range end, exclusive (RFC3339 or YYYY-MM-DD)"
// @Param       day          query string false "Single day (YYYY-MM-DD)"
// @Param       year         query int    false "Year (default current)"
// @Param       month        query int    false "Month 1-12 (omit for the whole year)"
// @Param       workspace_id query string false "Restrict to a workspace"
// @Param       category_id  query string false "Restrict to a category"
// @Success     200 {object} PeriodTotalResponse "Period total"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /summary/period [get]
func (h *SummaryHandler) GetPeriodTotal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	kind := c.Query("type")
	switch kind {
	case string(models.MovementTypeIncome), string(models.MovementTypeExpense), periodBalance:
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be 'income', 'expense' or 'balance'"))
		return
	}

	filter := services.SumFilter{UserID: userID}
	if filter.WorkspaceID, err = parseOptionalID(c, "workspace_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.CategoryID, err = parseOptionalID(c, "category_id"); err != nil {
		respondWithError(c, err)
		return
	}

	resp := &PeriodTotalResponse{Type: kind}
	sum, err := h.period(c, resp)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if kind != periodBalance {
		filter.Type = models.MovementType(kind)
		if resp.Total, err = sum(filter); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	filter.Type = models.MovementTypeIncome
	income, err := sum(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.Type = models.MovementTypeExpense
	expense, err := sum(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp.Income, resp.Expense = &income, &expense
	resp.Total = income - expense

	c.JSON(http.StatusOK, resp)
}

// period reads the period query parameters into resp and returns the
// aggregate query for that period.
func (h *SummaryHandler) period(c *gin.Context, resp *PeriodTotalResponse) (func(services.SumFilter) (int64, error), error) {
	fromRaw, toRaw := c.Query("from_date"), c.Query("to_date")
	if fromRaw != "" || toRaw != "" {
		from, fromErr := parseFlexibleTime(fromRaw)
		to, toErr := parseFlexibleTime(toRaw)
		if fromErr != nil || toErr != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date and to_date are both required, use RFC3339 or YYYY-MM-DD")
		}
		resp.From, resp.To = &from, &to
		return func(f services.SumFilter) (int64, error) {
			return h.aggregates.SumPaidBetween(f, from, to)
		}, nil
	}

	if v := c.Query("day"); v != "" {
		day, dayErr := time.Parse(time.DateOnly, v)
		if dayErr != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "day must be YYYY-MM-DD")
		}
		resp.Day = &day
		return func(f services.SumFilter) (int64, error) {
			return h.aggregates.SumPaidForDay(f, day)
		}, nil
	}

	resp.Year = time.Now().UTC().Year()
	if v := c.Query("year"); v != "" {
		year, convErr := strconv.Atoi(v)
		if convErr != nil || year < 2000 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be 2000 or later")
		}
		resp.Year = year
	}
	year := resp.Year

	if v := c.Query("month"); v != "" {
		month, convErr := strconv.Atoi(v)
		if convErr != nil || month < 1 || month > 12 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
		}
		resp.Month = month
		return func(f services.SumFilter) (int64, error) {
			return h.aggregates.SumPaidForMonth(f, year, month)
		}, nil
	}

	return func(f services.SumFilter) (int64, error) {
		return h.aggregates.SumPaidForYear(f, year)
	}, nil
}
