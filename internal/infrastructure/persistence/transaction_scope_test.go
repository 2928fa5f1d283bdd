package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	appfulfillment "github.com/erp/fulfillment/internal/application/fulfillment"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/infrastructure/event"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() LockRetryPolicy {
	return LockRetryPolicy{Attempts: 3, BaseBackoff: time.Millisecond}
}

func countOrders(t *testing.T, scope *GormTransactionScope) int64 {
	t.Helper()
	var n int64
	require.NoError(t, scope.db.Model(&models.OrderModel{}).Count(&n).Error)
	return n
}

func TestGormTransactionScope_Commit(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, nil, fastPolicy())

	err := scope.Execute(context.Background(), func(repos appfulfillment.TransactionalRepositories) error {
		order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.EUR)
		require.NoError(t, err)
		return repos.OrderRepo().(*GormOrderRepository).Create(context.Background(), order)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), countOrders(t, scope))
}

func TestGormTransactionScope_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, nil, fastPolicy())
	calls := 0

	err := scope.Execute(context.Background(), func(repos appfulfillment.TransactionalRepositories) error {
		calls++
		order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.EUR)
		require.NoError(t, err)
		require.NoError(t, repos.OrderRepo().(*GormOrderRepository).Create(context.Background(), order))
		return &fulfillment.EmptyOrderError{OrderID: order.ID.String()}
	})

	var empty *fulfillment.EmptyOrderError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 1, calls, "business errors are not retried")
	assert.Equal(t, int64(0), countOrders(t, scope))
}

func TestGormTransactionScope_RetriesLockContention(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, nil, fastPolicy())
	calls := 0

	err := scope.Execute(context.Background(), func(repos appfulfillment.TransactionalRepositories) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGormTransactionScope_GivesUpAfterAttempts(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, nil, fastPolicy())
	calls := 0

	err := scope.Execute(context.Background(), func(repos appfulfillment.TransactionalRepositories) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "40P01", pgErr.Code)
	assert.Equal(t, 3, calls)
}

func TestGormTransactionScope_OutboxRecorder(t *testing.T) {
	db := setupTestDB(t)
	serializer := event.NewEventSerializer()
	event.RegisterFulfillmentEvents(serializer)
	scope := NewGormTransactionScope(db, event.NewOutboxPublisher(serializer), fastPolicy())
	ctx := context.Background()

	err := scope.Execute(ctx, func(repos appfulfillment.TransactionalRepositories) error {
		order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.EUR)
		require.NoError(t, err)
		if err := repos.OrderRepo().(*GormOrderRepository).Create(ctx, order); err != nil {
			return err
		}
		if _, err := order.Submit("ORD-2026-000001", 1, fixedTime); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		return repos.Outbox().Record(ctx, order.GetDomainEvents()...)
	})
	require.NoError(t, err)

	var entries []models.OutboxEntryModel
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, fulfillment.EventTypeOrderStatusChanged, entries[0].EventType)
}

func TestGormTransactionScope_NilPublisherRecordsNothing(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, nil, fastPolicy())

	err := scope.Execute(context.Background(), func(repos appfulfillment.TransactionalRepositories) error {
		return repos.Outbox().Record(context.Background(), fulfillment.NewOrderStatusChangedEvent(
			&fulfillment.Order{}, fulfillment.OrderStatusDraft, fulfillment.OrderStatusSubmitted, "submit"))
	})

	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestLockRetryPolicyFrom(t *testing.T) {
	p := LockRetryPolicyFrom(config.FulfillmentConfig{LockRetryAttempts: 5})
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, DefaultLockRetryPolicy().BaseBackoff, p.BaseBackoff)
	assert.Equal(t, DefaultLockRetryPolicy().LockTimeout, p.LockTimeout)

	assert.Equal(t, 1, NewGormTransactionScope(nil, nil, LockRetryPolicy{}).policy.Attempts)
}
