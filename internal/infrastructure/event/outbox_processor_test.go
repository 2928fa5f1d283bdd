package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type processorFixture struct {
	db        *gorm.DB
	repo      *GormOutboxRepository
	bus       *InMemoryEventBus
	publisher *OutboxPublisher
	processor *OutboxProcessor
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	db := setupOutboxDB(t)
	serializer := NewEventSerializer()
	RegisterFulfillmentEvents(serializer)
	repo := NewGormOutboxRepository(db)
	bus := NewInMemoryEventBus(zap.NewNop())

	cfg := DefaultOutboxProcessorConfig()
	cfg.BatchSize = 10
	return &processorFixture{
		db:        db,
		repo:      repo,
		bus:       bus,
		publisher: NewOutboxPublisher(serializer),
		processor: NewOutboxProcessor(repo, bus, serializer, cfg, zap.NewNop()),
	}
}

func (f *processorFixture) publish(t *testing.T, events ...shared.DomainEvent) {
	t.Helper()
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.publisher.PublishWithTx(context.Background(), tx, events...)
	}))
}

func statusChange(t *testing.T) *fulfillment.OrderStatusChangedEvent {
	t.Helper()
	order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.DefaultCurrency)
	require.NoError(t, err)
	return fulfillment.NewOrderStatusChangedEvent(order, fulfillment.OrderStatusDraft, fulfillment.OrderStatusSubmitted, "submit")
}

func TestOutboxProcessor_RelaysPendingEntries(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t)
	h := newTestHandler(fulfillment.EventTypeOrderStatusChanged)
	f.bus.Subscribe(h)

	f.publish(t, statusChange(t), statusChange(t))

	assert.Equal(t, 2, f.processor.ProcessOnce(ctx))
	assert.Equal(t, 2, h.count())

	counts, err := f.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])

	assert.Equal(t, 0, f.processor.ProcessOnce(ctx), "sent entries are not relayed again")
}

func TestOutboxProcessor_HandlerFailureSchedulesRetry(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t)
	h := newTestHandler(fulfillment.EventTypeOrderStatusChanged)
	h.err = errors.New("sink down")
	f.bus.Subscribe(h)
	f.publish(t, statusChange(t))

	assert.Equal(t, 0, f.processor.ProcessOnce(ctx))

	later, err := f.repo.FindRetryable(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, 1, later[0].RetryCount)
	assert.Contains(t, later[0].LastError, "sink down")

	h.err = nil
	f.processor.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, f.processor.ProcessOnce(ctx))
}

func TestOutboxProcessor_UnknownEventTypeFails(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t)
	f.publish(t, newTestEvent("unregistered", uuid.New()))

	assert.Equal(t, 0, f.processor.ProcessOnce(ctx))

	counts, err := f.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusFailed])
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t)
	f.bus.Subscribe(newTestHandler())
	f.publish(t, statusChange(t))
	require.Equal(t, 1, f.processor.ProcessOnce(ctx))

	f.processor.config.CleanupRetention = time.Hour
	f.processor.Cleanup(ctx)
	counts, err := f.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent], "recent entries are kept")

	f.processor.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.processor.Cleanup(ctx)
	counts, err = f.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[shared.OutboxStatusSent])
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	f := newProcessorFixture(t)
	f.processor.config.PollInterval = 10 * time.Millisecond
	f.processor.config.CleanupInterval = 10 * time.Millisecond
	h := newTestHandler()
	f.bus.Subscribe(h)
	f.publish(t, statusChange(t))

	require.NoError(t, f.processor.Start(context.Background()))
	assert.Eventually(t, func() bool { return h.count() == 1 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.processor.Stop(stopCtx))
}

func TestProcessorConfigFrom(t *testing.T) {
	cfg := ProcessorConfigFrom(config.OutboxConfig{BatchSize: 25})
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, DefaultOutboxProcessorConfig().PollInterval, cfg.PollInterval)
}
