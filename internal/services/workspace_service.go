package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
)

// workspaceService handles workspace-related business logic.
type workspaceService struct {
	db *gorm.DB
}

// NewWorkspaceService creates a new WorkspaceServicer.
func NewWorkspaceService(db *gorm.DB) WorkspaceServicer {
	return &workspaceService{db: db}
}

func (s *workspaceService) nameTaken(tx *gorm.DB, userID, name, excludeID string) (bool, error) {
	q := tx.Model(&models.Workspace{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

var errPrincipalInactive = apperrors.WithMessage(apperrors.ErrPrincipalWorkspace, "The principal workspace cannot be inactive")

// clearPrincipal unsets the principal flag on every other workspace of the user.
func clearPrincipal(tx *gorm.DB, userID, keepID string) error {
	if err := tx.Model(&models.Workspace{}).
		Where("user_id = ? AND is_principal = ? AND id <> ?", userID, true, keepID).
		Update("is_principal", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateWorkspace creates a workspace. The first workspace of a user is
// always principal.
func (s *workspaceService) CreateWorkspace(userID string, in WorkspaceInput) (*models.Workspace, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "workspace name is required")
	}

	ws := &models.Workspace{
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if ws.Color == "" {
		ws.Color = models.DefaultWorkspaceColor
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := s.nameTaken(tx, userID, name, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateWorkspace
		}

		var existing int64
		if err := tx.Model(&models.Workspace{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		ws.IsPrincipal = existing == 0 || in.IsPrincipal
		if ws.IsPrincipal && !ws.IsActive {
			return errPrincipalInactive
		}

		if err := tx.Create(ws).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if ws.IsPrincipal {
			return clearPrincipal(tx, userID, ws.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// GetUserWorkspaces lists the user's workspaces, principal first.
func (s *workspaceService) GetUserWorkspaces(userID string) ([]models.Workspace, error) {
	workspaces := []models.Workspace{}
	if err := s.db.Where("user_id = ?", userID).
		Order("is_principal DESC, name ASC").
		Find(&workspaces).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return workspaces, nil
}

// GetActiveWorkspaces lists the user's active workspaces, principal first.
func (s *workspaceService) GetActiveWorkspaces(userID string) ([]models.Workspace, error) {
	workspaces := []models.Workspace{}
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_principal DESC, name ASC").
		Find(&workspaces).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return workspaces, nil
}

// GetPrincipalWorkspace returns the user's principal workspace.
func (s *workspaceService) GetPrincipalWorkspace(userID string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := s.db.Where("user_id = ? AND is_principal = ?", userID, true).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWorkspaceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ws, nil
}

// SetPrincipal makes the workspace the user's principal one and reactivates
// it if needed.
func (s *workspaceService) SetPrincipal(userID, workspaceID string) (*models.Workspace, error) {
	ws, err := s.GetWorkspaceByID(userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.IsPrincipal && ws.IsActive {
		return ws, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := clearPrincipal(tx, userID, ws.ID); err != nil {
			return err
		}
		if err := tx.Model(ws).Updates(map[string]interface{}{"is_principal": true, "is_active": true}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// GetWorkspaceByID retrieves a workspace by ID for a specific user.
func (s *workspaceService) GetWorkspaceByID(userID, workspaceID string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := s.db.Where("id = ? AND user_id = ?", workspaceID, userID).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWorkspaceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ws, nil
}

// UpdateWorkspace updates a workspace. Setting IsPrincipal moves the
// principal flag to this workspace; clearing it is ignored so the user
// always keeps one principal workspace. The principal workspace is always
// active.
func (s *workspaceService) UpdateWorkspace(userID, workspaceID string, in WorkspaceInput) (*models.Workspace, error) {
	ws, err := s.GetWorkspaceByID(userID, workspaceID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := make(map[string]interface{})
		if name := strings.TrimSpace(in.Name); name != "" && name != ws.Name {
			taken, err := s.nameTaken(tx, userID, name, ws.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.ErrDuplicateWorkspace
			}
			updates["name"] = name
		}
		if in.Description != "" {
			updates["description"] = in.Description
		}
		if in.Color != "" {
			updates["color"] = in.Color
		}
		if in.Icon != "" {
			updates["icon"] = in.Icon
		}
		principal := ws.IsPrincipal || in.IsPrincipal
		active := ws.IsActive
		if in.IsActive != nil {
			active = *in.IsActive
		} else if in.IsPrincipal {
			active = true
		}
		if principal && !active {
			return errPrincipalInactive
		}
		if active != ws.IsActive {
			updates["is_active"] = active
		}
		if in.IsPrincipal && !ws.IsPrincipal {
			updates["is_principal"] = true
			if err := clearPrincipal(tx, userID, ws.ID); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(ws).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// DeleteWorkspace deletes a non-principal workspace. Its movements stay
// and lose the workspace reference.
func (s *workspaceService) DeleteWorkspace(userID, workspaceID string) error {
	ws, err := s.GetWorkspaceByID(userID, workspaceID)
	if err != nil {
		return err
	}
	if ws.IsPrincipal {
		return apperrors.ErrPrincipalWorkspace
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Movement{}).
			Where("workspace_id = ?", ws.ID).
			Update("workspace_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(ws).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
