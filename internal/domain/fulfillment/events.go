package fulfillment

import (
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants
const (
	EventTypeOrderStatusChanged    = "fulfillment.order.status_changed"
	EventTypeNotificationRequested = "fulfillment.notification.requested"
)

// OrderStatusChangedEvent is raised on every order status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number,omitempty"`
	FromStatus  OrderStatus `json:"from_status"`
	ToStatus    OrderStatus `json:"to_status"`
	Operation   string      `json:"operation"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, from, to OrderStatus, operation string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID, order.CompanyID),
		OrderID:         order.ID,
		OrderNumber:     order.NumberOrEmpty(),
		FromStatus:      from,
		ToStatus:        to,
		Operation:       operation,
	}
}

// EventType returns the event type name
func (e *OrderStatusChangedEvent) EventType() string {
	return EventTypeOrderStatusChanged
}

// NotificationRequestedEvent asks the external dispatcher to deliver a notification
type NotificationRequestedEvent struct {
	shared.BaseDomainEvent
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrderID        uuid.UUID `json:"order_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
}

// NewNotificationRequestedEvent creates a new NotificationRequestedEvent
func NewNotificationRequestedEvent(n *Notification, companyID uuid.UUID) *NotificationRequestedEvent {
	return &NotificationRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeNotificationRequested, AggregateTypeOrder, n.OrderID, companyID),
		NotificationID:  n.ID,
		UserID:          n.UserID,
		OrderID:         n.OrderID,
		Title:           n.Title,
		Message:         n.Message,
	}
}

// EventType returns the event type name
func (e *NotificationRequestedEvent) EventType() string {
	return EventTypeNotificationRequested
}
