package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/services"
)

// WorkspaceHandler handles workspace requests.
type WorkspaceHandler struct {
	workspaceService services.WorkspaceServicer
	auditService     services.AuditServicer
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(workspaceService services.WorkspaceServicer, auditService services.AuditServicer) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService, auditService: auditService}
}

// WorkspaceRequest is the payload for creating or updating a workspace.
type WorkspaceRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"omitempty,hex_color"`
	Icon        string `json:"icon" binding:"max=50"`
	IsPrincipal bool   `json:"is_principal"`
	IsActive    *bool  `json:"is_active"`
}

func (r *WorkspaceRequest) input() services.WorkspaceInput {
	return services.WorkspaceInput{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
		IsPrincipal: r.IsPrincipal,
		IsActive:    r.IsActive,
	}
}

// CreateWorkspace handles workspace creation.
// @Summary     Create a workspace
// @Description Create a workspace. Marking it principal clears the flag on the user's other workspaces.
// @Tags        workspaces
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WorkspaceRequest true "Workspace details"
// @Success     201 {object} models.Workspace "Workspace created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate workspace name"
// @Router      /workspaces [post]
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	workspace, err := h.workspaceService.CreateWorkspace(userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"workspace": workspace})
}

// GetWorkspaces lists the user's workspaces, principal first.
// @Summary     Get workspaces
// @Tags        workspaces
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Workspace "Workspaces"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /workspaces [get]
func (h *WorkspaceHandler) GetWorkspaces(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaces, err := h.workspaceService.GetUserWorkspaces(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetActiveWorkspaces lists the user's active workspaces, principal first.
// @Summary     Get active workspaces
// @Tags        workspaces
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Workspace "Active workspaces"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /workspaces/active [get]
func (h *WorkspaceHandler) GetActiveWorkspaces(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaces, err := h.workspaceService.GetActiveWorkspaces(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetPrincipalWorkspace returns the user's principal workspace.
// @Summary     Get principal workspace
// @Tags        workspaces
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Workspace "Principal workspace"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No principal workspace"
// @Router      /workspaces/principal [get]
func (h *WorkspaceHandler) GetPrincipalWorkspace(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspace, err := h.workspaceService.GetPrincipalWorkspace(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": workspace})
}

// SetPrincipal makes a workspace the user's principal one.
// @Summary     Set principal workspace
// @Tags        workspaces
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Workspace ID"
// @Success     200 {object} models.Workspace "Principal workspace"
// @Failure     400 {object} ErrorResponse "Invalid workspace ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Workspace not found"
// @Router      /workspaces/{id}/principal [patch]
func (h *WorkspaceHandler) SetPrincipal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspace, err := h.workspaceService.SetPrincipal(userID, workspaceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSetPrincipal, "workspace", workspace.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"workspace": workspace})
}

// GetWorkspace returns one workspace.
// @Summary     Get workspace by ID
// @Tags        workspaces
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Workspace ID"
// @Success     200 {object} models.Workspace "Workspace"
// @Failure     400 {object} ErrorResponse "Invalid workspace ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Workspace not found"
// @Router      /workspaces/{id} [get]
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspace, err := h.workspaceService.GetWorkspaceByID(userID, workspaceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": workspace})
}

// UpdateWorkspace replaces a workspace's fields.
// @Summary     Update workspace
// @Tags        workspaces
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Workspace ID"
// @Param       request body WorkspaceRequest true "Workspace details"
// @Success     200 {object} models.Workspace "Updated workspace"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Workspace not found"
// @Failure     409 {object} ErrorResponse "Duplicate workspace name"
// @Router      /workspaces/{id} [put]
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	workspace, err := h.workspaceService.UpdateWorkspace(userID, workspaceID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": workspace})
}

// DeleteWorkspace deletes a workspace. Its movements are kept and detached.
// @Summary     Delete workspace
// @Tags        workspaces
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Workspace ID"
// @Success     200 {object} MessageResponse "Workspace deleted"
// @Failure     400 {object} ErrorResponse "Invalid workspace ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Workspace not found"
// @Failure     409 {object} ErrorResponse "Principal workspace"
// @Router      /workspaces/{id} [delete]
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workspaceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.workspaceService.DeleteWorkspace(userID, workspaceID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteWorkspace, "workspace", workspaceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Workspace deleted successfully"})
}
