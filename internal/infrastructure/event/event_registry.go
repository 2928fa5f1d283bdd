package event

import "github.com/erp/fulfillment/internal/domain/fulfillment"

// RegisterFulfillmentEvents registers every event the fulfillment commands write
// to the outbox so the processor can decode them
func RegisterFulfillmentEvents(serializer *EventSerializer) {
	serializer.Register(fulfillment.EventTypeOrderStatusChanged, &fulfillment.OrderStatusChangedEvent{})
	serializer.Register(fulfillment.EventTypeNotificationRequested, &fulfillment.NotificationRequestedEvent{})
}
