package event

import (
	"testing"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTripOrderStatusChanged(t *testing.T) {
	s := NewEventSerializer()
	RegisterFulfillmentEvents(s)

	order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.DefaultCurrency)
	require.NoError(t, err)
	original := fulfillment.NewOrderStatusChangedEvent(order, fulfillment.OrderStatusPacked, fulfillment.OrderStatusDispatched, "ship")

	data, err := s.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"to_status":"dispatched"`)

	decoded, err := s.Deserialize(fulfillment.EventTypeOrderStatusChanged, data)
	require.NoError(t, err)

	got, ok := decoded.(*fulfillment.OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, order.CompanyID, got.CompanyID())
	assert.Equal(t, order.ID, got.OrderID)
	assert.Equal(t, fulfillment.OrderStatusPacked, got.FromStatus)
	assert.Equal(t, fulfillment.OrderStatusDispatched, got.ToStatus)
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize("nope", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_MalformedPayload(t *testing.T) {
	s := NewEventSerializer()
	RegisterFulfillmentEvents(s)

	_, err := s.Deserialize(fulfillment.EventTypeNotificationRequested, []byte(`{"title":`))
	assert.Error(t, err)
}

func TestRegisterFulfillmentEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterFulfillmentEvents(s)

	assert.True(t, s.IsRegistered(fulfillment.EventTypeOrderStatusChanged))
	assert.True(t, s.IsRegistered(fulfillment.EventTypeNotificationRequested))
	assert.Equal(t, []string{
		fulfillment.EventTypeNotificationRequested,
		fulfillment.EventTypeOrderStatusChanged,
	}, s.RegisteredTypes())
}
