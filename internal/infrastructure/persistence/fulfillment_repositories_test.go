package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func TestGormWarehouseTaskRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormWarehouseTaskRepository(db)
	order, items := seedOrder(t, db, 2)
	actor := uuid.New()

	_, err := repo.FindByOrderItemForUpdate(ctx, items[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	task := fulfillment.NewWarehouseTask(items[0].ID)
	require.NoError(t, task.Advance(fulfillment.TaskUpdate{Status: fulfillment.TaskStatusPicking, Actor: actor, At: fixedTime}, items[0].Quantity))
	require.NoError(t, repo.Save(ctx, task))

	qty := decimal.NewFromInt(2)
	note := "aisle 4"
	require.NoError(t, task.Advance(fulfillment.TaskUpdate{
		Status:         fulfillment.TaskStatusPicked,
		QuantityPicked: &qty,
		LocationNote:   &note,
		Actor:          actor,
		At:             fixedTime.Add(time.Minute),
	}, items[0].Quantity))
	require.NoError(t, repo.Save(ctx, task))

	stored, err := repo.FindByOrderItemForUpdate(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, stored.ID)
	assert.Equal(t, fulfillment.TaskStatusPicked, stored.Status)
	assert.True(t, qty.Equal(stored.QuantityPicked))
	assert.Equal(t, "aisle 4", stored.LocationNote)
	require.NotNil(t, stored.PickedBy)
	assert.Equal(t, actor, *stored.PickedBy)

	other := fulfillment.NewWarehouseTask(items[1].ID)
	require.NoError(t, repo.Save(ctx, other))

	tasks, err := repo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	none, err := repo.FindByOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormShipmentRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormShipmentRepository(db)
	orderID := uuid.New()
	weight := decimal.RequireFromString("12.5")

	shipment, err := fulfillment.NewShipment(orderID, "DHL", "TRACK-1", 0, &weight, uuid.New(), fixedTime)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, shipment))

	got, err := repo.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DHL", got[0].Carrier)
	assert.Equal(t, 1, got[0].ParcelsCount)
	require.NotNil(t, got[0].TotalWeight)
	assert.True(t, weight.Equal(*got[0].TotalWeight))
}

func TestGormAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormAuditLogRepository(db)
	orderID := uuid.New()
	actor := uuid.New()

	submitted, err := fulfillment.NewAuditLogEntry(orderID, actor, fulfillment.AuditActionOrderSubmitted,
		fulfillment.OrderStatusDraft, fulfillment.OrderStatusSubmitted,
		map[string]any{"order_number": "ORD-2026-000001", "item_count": 2}, fixedTime)
	require.NoError(t, err)
	shipped, err := fulfillment.NewAuditLogEntry(orderID, actor, fulfillment.AuditActionShipmentCreated,
		fulfillment.OrderStatusSubmitted, fulfillment.OrderStatusDispatched, nil, fixedTime.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, shipped))
	require.NoError(t, repo.Append(ctx, submitted))

	history, err := repo.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, fulfillment.AuditActionOrderSubmitted, history[0].Action)
	assert.Equal(t, "ORD-2026-000001", history[0].Payload["order_number"])
	assert.EqualValues(t, 2, history[0].Payload["item_count"])
	require.NotNil(t, history[1].ToStatus)
	assert.Equal(t, fulfillment.OrderStatusDispatched, *history[1].ToStatus)
	assert.Empty(t, history[1].Payload)
}

func TestGormNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormNotificationRepository(db)
	orderID := uuid.New()

	require.NoError(t, repo.CreateBatch(ctx, nil))
	require.NoError(t, repo.CreateBatch(ctx, []*fulfillment.Notification{
		fulfillment.NewNotification(uuid.New(), orderID, "New order submitted", "a", fixedTime),
		fulfillment.NewNotification(uuid.New(), orderID, "New order submitted", "b", fixedTime),
	}))

	var n int64
	require.NoError(t, db.Model(&models.NotificationModel{}).Where("order_id = ?", orderID).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestGormUserDirectory(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	admin := models.UserModel{ID: uuid.New(), Role: fulfillment.RoleAdmin, Email: "a@example.com", Active: true}
	inactive := models.UserModel{ID: uuid.New(), Role: fulfillment.RoleAdmin, Email: "b@example.com", Active: true}
	client := models.UserModel{ID: uuid.New(), Role: fulfillment.RoleClient, Email: "c@example.com", Active: true}
	require.NoError(t, db.Create([]*models.UserModel{&admin, &inactive, &client}).Error)
	require.NoError(t, db.Model(&models.UserModel{}).Where("id = ?", inactive.ID).Update("active", false).Error)

	ids, err := NewGormUserDirectory(db).FindActiveIDsByRole(ctx, fulfillment.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{admin.ID}, ids)
}

func TestGormOrderNumberSequence_Next(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT nextval\(\$1\)`).
		WithArgs(OrderNumberSequenceName).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(42)))

	n, err := NewGormOrderNumberSequence(db).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOrderNumberSequence_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT nextval`).WillReturnError(assert.AnError)

	_, err := NewGormOrderNumberSequence(db).Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
