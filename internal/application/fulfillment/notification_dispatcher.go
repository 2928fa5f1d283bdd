package fulfillment

import (
	"context"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationSink delivers a notification to its recipient.
// Implementations may send e-mail, push messages or call a webhook.
type NotificationSink interface {
	Deliver(ctx context.Context, n NotificationMessage) error
}

// NotificationMessage is what the sink receives
type NotificationMessage struct {
	NotificationID string `json:"notification_id"`
	CompanyID      string `json:"company_id"`
	UserID         string `json:"user_id"`
	OrderID        string `json:"order_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// NotificationDispatcher relays NotificationRequestedEvent from the outbox
// to the configured sink. Without a sink notifications are only logged.
type NotificationDispatcher struct {
	logger *zap.Logger
	sink   NotificationSink
}

// NewNotificationDispatcher creates a new NotificationDispatcher
func NewNotificationDispatcher(logger *zap.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{logger: logger}
}

// WithSink sets the delivery sink
func (d *NotificationDispatcher) WithSink(sink NotificationSink) *NotificationDispatcher {
	d.sink = sink
	return d
}

// EventTypes returns the event types this handler is interested in
func (d *NotificationDispatcher) EventTypes() []string {
	return []string{fulfillment.EventTypeNotificationRequested}
}

// Handle delivers one notification
func (d *NotificationDispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	requested, ok := event.(*fulfillment.NotificationRequestedEvent)
	if !ok {
		d.logger.Error("unexpected event type",
			zap.String("expected", fulfillment.EventTypeNotificationRequested),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			fulfillment.EventTypeNotificationRequested, event.EventType())
	}

	msg := NotificationMessage{
		NotificationID: requested.NotificationID.String(),
		CompanyID:      event.CompanyID().String(),
		UserID:         requested.UserID.String(),
		OrderID:        requested.OrderID.String(),
		Title:          requested.Title,
		Message:        requested.Message,
	}

	if d.sink == nil {
		d.logger.Info("notification requested",
			zap.String("notification_id", msg.NotificationID),
			zap.String("user_id", msg.UserID),
			zap.String("order_id", msg.OrderID),
			zap.String("title", msg.Title),
		)
		return nil
	}

	if err := d.sink.Deliver(ctx, msg); err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("notification_id", msg.NotificationID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to deliver notification %s: %w", msg.NotificationID, err)
	}
	return nil
}
