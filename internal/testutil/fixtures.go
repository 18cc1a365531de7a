package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finanzas/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestWorkspace creates an active workspace.
func CreateTestWorkspace(t *testing.T, db *gorm.DB, userID string) *models.Workspace {
	t.Helper()

	ws := &models.Workspace{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Workspace %d", nextID()),
		IsActive: true,
		Color:    models.DefaultWorkspaceColor,
	}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestMovement creates a paid movement in the given category dated at date.
func CreateTestMovement(t *testing.T, db *gorm.DB, userID string, categoryID *string, movementType models.MovementType, amount int64, date time.Time) *models.Movement {
	t.Helper()

	mov := &models.Movement{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        movementType,
		Description: fmt.Sprintf("Test Movement %d", nextID()),
		Amount:      amount,
		Date:        date.UTC(),
		IsPaid:      true,
	}
	if err := db.Create(mov).Error; err != nil {
		t.Fatalf("failed to create test movement: %v", err)
	}
	return mov
}

// CreateTestDueMovement creates an unpaid expense due at dueDate.
func CreateTestDueMovement(t *testing.T, db *gorm.DB, userID string, amount int64, dueDate time.Time) *models.Movement {
	t.Helper()

	due := dueDate.UTC()
	mov := &models.Movement{
		UserID:      userID,
		Type:        models.MovementTypeExpense,
		Description: fmt.Sprintf("Test Bill %d", nextID()),
		Amount:      amount,
		Date:        due.AddDate(0, 0, -10),
		DueDate:     &due,
		IsPaid:      false,
	}
	if err := db.Create(mov).Error; err != nil {
		t.Fatalf("failed to create test due movement: %v", err)
	}
	return mov
}

// CreateTestBudget creates an active budget of 1000.00 for the given month.
// A nil categoryID creates a general budget.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, categoryID *string, month, year int) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     categoryID,
		Name:           fmt.Sprintf("Test Budget %d", nextID()),
		LimitAmount:    100000, // 1000.00
		Month:          month,
		Year:           year,
		AlertThreshold: models.DefaultAlertThreshold,
		IsActive:       true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestNotification creates an unread notification of the given kind
// with the given creation time.
func CreateTestNotification(t *testing.T, db *gorm.DB, userID string, kind models.NotificationKind, createdAt time.Time) *models.Notification {
	t.Helper()

	n := &models.Notification{
		Base:    models.Base{CreatedAt: createdAt.UTC()},
		UserID:  userID,
		Title:   fmt.Sprintf("Test Notification %d", nextID()),
		Message: "test",
		Kind:    kind,
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
