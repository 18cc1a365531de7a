package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// MovementHandler handles income and expense entries.
type MovementHandler struct {
	movementService services.MovementServicer
	auditService    services.AuditServicer
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementService services.MovementServicer, auditService services.AuditServicer) *MovementHandler {
	return &MovementHandler{movementService: movementService, auditService: auditService}
}

// CreateMovementRequest represents the payload for recording a movement.
// Dates accept RFC3339 or YYYY-MM-DD; date defaults to now.
type CreateMovementRequest struct {
	Type        models.MovementType `json:"type" binding:"required,movement_type"`
	Description string              `json:"description" binding:"required,min=1,max=255"`
	Amount      int64               `json:"amount" binding:"required,gt=0"`
	Date        *string             `json:"date"`
	DueDate     *string             `json:"due_date"`
	IsPaid      *bool               `json:"is_paid"`
	CategoryID  string              `json:"category_id" binding:"required,uuid_id"`
	WorkspaceID *string             `json:"workspace_id" binding:"omitempty,uuid_id"`
}

func (r *CreateMovementRequest) input() (services.MovementInput, error) {
	in := services.MovementInput{
		Type:        r.Type,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        time.Now().UTC(),
		IsPaid:      true,
		CategoryID:  r.CategoryID,
		WorkspaceID: r.WorkspaceID,
	}
	if r.Date != nil {
		d, err := parseFlexibleTime(*r.Date)
		if err != nil {
			return in, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD")
		}
		in.Date = d
	}
	if r.DueDate != nil {
		d, err := parseFlexibleTime(*r.DueDate)
		if err != nil {
			return in, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid due_date format, use RFC3339 or YYYY-MM-DD")
		}
		in.DueDate = &d
	}
	if r.IsPaid != nil {
		in.IsPaid = *r.IsPaid
	}
	return in, nil
}

// CreateMovement records a movement.
// @Summary     Create a movement
// @Description Record an income or expense. Unpaid movements with a due date raise due-date notifications.
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMovementRequest true "Movement details"
// @Success     201 {object} models.Movement "Movement created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category or workspace not found"
// @Router      /movements [post]
func (h *MovementHandler) CreateMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.movementService.CreateMovement(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateMovement, "movement", movement.ID, c.ClientIP(),
		map[string]interface{}{"type": movement.Type, "amount": movement.Amount, "is_paid": movement.IsPaid})

	c.JSON(http.StatusCreated, gin.H{"movement": movement})
}

// UpdateMovement replaces a movement's fields. Unlike create, date is required.
// @Summary     Update a movement
// @Description Replace type, description, amount, dates, paid flag, category and workspace of a movement.
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Movement ID"
// @Param       request body CreateMovementRequest true "Movement details"
// @Success     200 {object} models.Movement "Updated movement"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement, category or workspace not found"
// @Router      /movements/{id} [put]
func (h *MovementHandler) UpdateMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if req.Date == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required"))
		return
	}

	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.movementService.UpdateMovement(userID, movementID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateMovement, "movement", movement.ID, c.ClientIP(),
		map[string]interface{}{"type": movement.Type, "amount": movement.Amount, "is_paid": movement.IsPaid})

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// GetMovements lists movements, newest first.
// @Summary     Get movements
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       type         query string false "income or expense"
// @Param       is_paid      query bool   false "Filter by paid status"
// @Param       category_id  query string false "Filter by category"
// @Param       workspace_id query string false "Filter by workspace"
// @Param       from_date    query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date      query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Param       sort         query string false "date_desc (default), date_asc, amount_desc or amount_asc"
// @Success     200 {object} pagination.PageResponse[models.Movement] "Paginated movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /movements [get]
func (h *MovementHandler) GetMovements(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.movementService.GetUserMovements(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseMovementFilter(c *gin.Context) (services.MovementFilter, error) {
	var filter services.MovementFilter
	var err error

	if v := c.Query("type"); v != "" {
		t := models.MovementType(v)
		if t != models.MovementTypeIncome && t != models.MovementTypeExpense {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense")
		}
		filter.Type = &t
	}
	if filter.IsPaid, err = parseOptionalBool(c, "is_paid"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = parseOptionalID(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.WorkspaceID, err = parseOptionalID(c, "workspace_id"); err != nil {
		return filter, err
	}
	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}
	return filter, nil
}

// GetMovement returns one movement.
// @Summary     Get movement by ID
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} models.Movement "Movement"
// @Failure     400 {object} ErrorResponse "Invalid movement ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id} [get]
func (h *MovementHandler) GetMovement(c *gin.Context) {
	h.withMovement(c, h.movementService.GetMovementByID)
}

// MarkPaid marks a movement as paid.
// @Summary     Mark movement paid
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} models.Movement "Updated movement"
// @Failure     400 {object} ErrorResponse "Invalid movement ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id}/paid [patch]
func (h *MovementHandler) MarkPaid(c *gin.Context) {
	h.withMovement(c, h.movementService.MarkPaid)
}

// MarkPending marks a movement as not yet paid.
// @Summary     Mark movement pending
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} models.Movement "Updated movement"
// @Failure     400 {object} ErrorResponse "Invalid movement ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id}/pending [patch]
func (h *MovementHandler) MarkPending(c *gin.Context) {
	h.withMovement(c, h.movementService.MarkPending)
}

func (h *MovementHandler) withMovement(c *gin.Context, op func(userID, movementID string) (*models.Movement, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := op(userID, movementID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// DeleteMovement deletes a movement. Notifications about it are kept.
// @Summary     Delete movement
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} MessageResponse "Movement deleted"
// @Failure     400 {object} ErrorResponse "Invalid movement ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id} [delete]
func (h *MovementHandler) DeleteMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.movementService.DeleteMovement(userID, movementID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteMovement, "movement", movementID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Movement deleted successfully"})
}
