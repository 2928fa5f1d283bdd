package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to a user about an order.
// Delivery is handled outside this service.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	OrderID   uuid.UUID
	Title     string
	Message   string
	CreatedAt time.Time
}

// NewNotification creates a notification for one recipient
func NewNotification(userID, orderID uuid.UUID, title, message string, at time.Time) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		OrderID:   orderID,
		Title:     title,
		Message:   message,
		CreatedAt: at,
	}
}
