package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finanzas/internal/models"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"closed sentinel", amqp091.ErrClosed, true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestNotificationMessage(t *testing.T) {
	budgetID := "0190a5e2-7a1c-7cc2-9b4e-3f1d2c3b4a59"
	created := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	n := &models.Notification{
		Base:     models.Base{ID: "0190a5e2-7a1c-7cc2-9b4e-000000000001", CreatedAt: created},
		UserID:   "0190a5e2-7a1c-7cc2-9b4e-000000000002",
		Kind:     models.NotificationBudgetExceeded,
		Title:    "Budget Exceeded!",
		Message:  "Budget 'Food' (General) has been exceeded",
		BudgetID: &budgetID,
	}

	body, err := NewNotificationMessage(n).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	msg, err := NotificationMessageFromJSON(body)
	if err != nil {
		t.Fatalf("NotificationMessageFromJSON() error = %v", err)
	}
	if msg.Kind != models.NotificationBudgetExceeded || msg.BudgetID == nil || *msg.BudgetID != budgetID {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.MovementID != nil {
		t.Error("expected movement_id to be omitted")
	}
	if !msg.CreatedAt.Equal(created) {
		t.Errorf("expected created_at %v, got %v", created, msg.CreatedAt)
	}
}

func TestNotificationMessageFromJSONInvalid(t *testing.T) {
	if _, err := NotificationMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
