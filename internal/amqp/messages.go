package amqp

import (
	"encoding/json"
	"time"

	"finanzas/internal/models"
)

// NotificationMessage is the payload published for every stored notification.
type NotificationMessage struct {
	ID         string                  `json:"id"`
	UserID     string                  `json:"user_id"`
	Kind       models.NotificationKind `json:"kind"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	MovementID *string                 `json:"movement_id,omitempty"`
	BudgetID   *string                 `json:"budget_id,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewNotificationMessage builds the message for n.
func NewNotificationMessage(n *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		ID:         n.ID,
		UserID:     n.UserID,
		Kind:       n.Kind,
		Title:      n.Title,
		Message:    n.Message,
		MovementID: n.MovementID,
		BudgetID:   n.BudgetID,
		CreatedAt:  n.CreatedAt.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message published by PublishNotification.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
