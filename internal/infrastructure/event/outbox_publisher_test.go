package event

import (
	"context"
	"testing"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOutboxPublisher_PublishWithTx(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxDB(t)
	serializer := NewEventSerializer()
	RegisterFulfillmentEvents(serializer)
	publisher := NewOutboxPublisher(serializer).WithMaxRetries(3)

	order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.DefaultCurrency)
	require.NoError(t, err)
	event := fulfillment.NewOrderStatusChangedEvent(order, fulfillment.OrderStatusDraft, fulfillment.OrderStatusSubmitted, "submit")

	err = db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(ctx, tx, event)
	})
	require.NoError(t, err)

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, event.EventID(), pending[0].EventID)
	assert.Equal(t, order.CompanyID, pending[0].CompanyID)
	assert.Equal(t, fulfillment.AggregateTypeOrder, pending[0].AggregateType)
	assert.Equal(t, 3, pending[0].MaxRetries)
}

func TestOutboxPublisher_RollbackDiscardsEntries(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxDB(t)
	publisher := NewOutboxPublisher(NewEventSerializer())

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, publisher.PublishWithTx(ctx, tx, newTestEvent("order", uuid.New())))
		return assert.AnError
	})

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxPublisher_SaveEvents(t *testing.T) {
	publisher := NewOutboxPublisher(NewEventSerializer())

	t.Run("rejects foreign transaction handles", func(t *testing.T) {
		err := publisher.SaveEvents(context.Background(), "not a tx", newTestEvent("order", uuid.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "*gorm.DB")
	})

	t.Run("no events is a no-op", func(t *testing.T) {
		assert.NoError(t, publisher.SaveEvents(context.Background(), nil))
	})

	var _ shared.OutboxEventSaver = publisher
}
