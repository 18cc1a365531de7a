package services

import (
	"context"
	"time"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, description, icon, color string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// WorkspaceInput carries the writable fields of a workspace.
type WorkspaceInput struct {
	Name        string
	Description string
	Color       string
	Icon        string
	IsPrincipal bool
	// IsActive is left unchanged on update when nil.
	IsActive *bool
}

// WorkspaceServicer defines the contract for workspace-related business logic.
type WorkspaceServicer interface {
	CreateWorkspace(userID string, in WorkspaceInput) (*models.Workspace, error)
	GetUserWorkspaces(userID string) ([]models.Workspace, error)
	GetActiveWorkspaces(userID string) ([]models.Workspace, error)
	GetPrincipalWorkspace(userID string) (*models.Workspace, error)
	SetPrincipal(userID, workspaceID string) (*models.Workspace, error)
	GetWorkspaceByID(userID, workspaceID string) (*models.Workspace, error)
	UpdateWorkspace(userID, workspaceID string, in WorkspaceInput) (*models.Workspace, error)
	DeleteWorkspace(userID, workspaceID string) error
}

// MovementInput carries the fields needed to record a movement.
type MovementInput struct {
	Type        models.MovementType
	Description string
	Amount      int64
	Date        time.Time
	DueDate     *time.Time
	IsPaid      bool
	CategoryID  string
	WorkspaceID *string
}

// MovementFilter holds optional filter parameters for listing movements.
type MovementFilter struct {
	Type        *models.MovementType
	IsPaid      *bool
	CategoryID  *string
	WorkspaceID *string
	FromDate    *time.Time
	ToDate      *time.Time
}

// MovementServicer defines the contract for movement-related business logic.
type MovementServicer interface {
	CreateMovement(userID string, in MovementInput) (*models.Movement, error)
	GetMovementByID(userID, movementID string) (*models.Movement, error)
	GetUserMovements(userID string, page pagination.PageRequest, filter MovementFilter) (*pagination.PageResponse[models.Movement], error)
	UpdateMovement(userID, movementID string, in MovementInput) (*models.Movement, error)
	MarkPaid(userID, movementID string) (*models.Movement, error)
	MarkPending(userID, movementID string) (*models.Movement, error)
	DeleteMovement(userID, movementID string) error
}

// SumFilter scopes a paid-movement sum.
type SumFilter struct {
	UserID      string
	Type        models.MovementType
	WorkspaceID *string
	CategoryID  *string
}

// CategoryTotal is the paid sum of one category.
type CategoryTotal struct {
	CategoryID   *string             `json:"category_id"`
	CategoryName string              `json:"category_name"`
	Type         models.MovementType `json:"type"`
	Total        int64               `json:"total"`
}

// Summary aggregates a user's paid income and expense.
type Summary struct {
	Income      int64 `json:"income"`
	Expense     int64 `json:"expense"`
	Balance     int64 `json:"balance"`
	PendingDebt int64 `json:"pending_debt"`
}

// AggregationProvider computes sums over paid movements. All amounts are in cents.
type AggregationProvider interface {
	SumPaidExpenses(userID string, categoryID *string, year, month int) (int64, error)
	SumPaidForMonth(filter SumFilter, year, month int) (int64, error)
	SumPaidForDay(filter SumFilter, day time.Time) (int64, error)
	SumPaidForYear(filter SumFilter, year int) (int64, error)
	SumPaidBetween(filter SumFilter, from, to time.Time) (int64, error)
	TotalsByCategory(userID string, workspaceID *string) ([]CategoryTotal, error)
	Summary(userID string, workspaceID *string) (*Summary, error)
}

// BudgetState is the derived spending state of a budget.
type BudgetState struct {
	Spent          int64   `json:"spent"`
	Available      int64   `json:"available"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// BudgetView is a budget together with its derived state.
type BudgetView struct {
	models.Budget
	BudgetState
}

// BudgetEvaluator computes budget state and raises threshold notifications.
type BudgetEvaluator interface {
	Evaluate(budget *models.Budget) (*BudgetState, error)
}

// BudgetInput carries the writable fields of a budget. A nil CategoryID
// means a general budget. A zero AlertThreshold means the default.
type BudgetInput struct {
	Name           string
	LimitAmount    int64
	Month          int
	Year           int
	CategoryID     *string
	AlertThreshold int
	IsActive       *bool
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, in BudgetInput) (*BudgetView, error)
	GetUserBudgets(userID string) ([]BudgetView, error)
	GetActiveBudgets(userID string) ([]BudgetView, error)
	GetCurrentMonthBudgets(userID string) ([]BudgetView, error)
	GetBudgetByID(userID, budgetID string) (*BudgetView, error)
	UpdateBudget(userID, budgetID string, in BudgetInput) (*BudgetView, error)
	DeleteBudget(userID, budgetID string) error
}

// NotificationServicer defines the contract for a user's notification log.
type NotificationServicer interface {
	Append(n *models.Notification) (*models.Notification, error)
	ListAll(userID string, kind models.NotificationKind) ([]models.Notification, error)
	ListUnread(userID string, kind models.NotificationKind) ([]models.Notification, error)
	CountUnread(userID string) (int64, error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
	MarkAllRead(userID string) (int64, error)
	Delete(userID, notificationID string) error
}

// NotificationDeduplicator suppresses repeats of the same notification for
// the same subject within a time window.
type NotificationDeduplicator interface {
	ShouldEmit(subjectID string, kind models.NotificationKind, now time.Time) (bool, error)
	EmitOnce(n *models.Notification) (bool, error)
}

// NotificationPublisher fans appended notifications out to other systems.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

// DueDateScanner raises notifications for unpaid movements close to or past
// their due date.
type DueDateScanner interface {
	Scan(now time.Time) (int, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
