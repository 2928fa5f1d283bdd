package fulfillment

import (
	"context"
	"testing"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWarehouseService(r *testRepos) *WarehouseService {
	svc := NewWarehouseService(r.scope(), NewAuditTrail(r.orders, r.audit, zap.NewNop()), zap.NewNop())
	svc.now = fixedClock
	return svc
}

func newTestItem(orderID uuid.UUID, qty int64) fulfillment.OrderItem {
	return fulfillment.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		UnitPrice: decimal.NewFromInt(10),
		Quantity:  decimal.NewFromInt(qty),
	}
}

func taskFor(item fulfillment.OrderItem, status fulfillment.TaskStatus) fulfillment.WarehouseTask {
	task := fulfillment.NewWarehouseTask(item.ID)
	task.Status = status
	return *task
}

func statusUnchangedEntry(action fulfillment.AuditAction) any {
	return mock.MatchedBy(func(e *fulfillment.AuditLogEntry) bool {
		return e.Action == action && e.FromStatus == nil && e.ToStatus == nil
	})
}

func TestWarehouseService_AdvanceWarehouseTask(t *testing.T) {
	ctx := context.Background()
	picker := fulfillment.AuthContext{UserID: uuid.New(), Role: fulfillment.RoleWarehouse}

	t.Run("first touch creates the task and moves the order to picking", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusConfirmed)
		itemA := newTestItem(order.ID, 3)

		r.items.On("FindByID", mock.Anything, itemA.ID).Return(&itemA, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, itemA.ID).Return(nil, shared.ErrNotFound)
		r.tasks.On("Save", mock.Anything, mock.MatchedBy(func(task *fulfillment.WarehouseTask) bool {
			return task.OrderItemID == itemA.ID && task.Status == fulfillment.TaskStatusPicking && task.PickedAt == nil
		})).Return(nil)
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{}, nil)
		r.orders.On("Save", mock.Anything, order).Return(nil)
		r.audit.On("Append", mock.Anything, mock.MatchedBy(func(e *fulfillment.AuditLogEntry) bool {
			return e.Action == fulfillment.AuditActionWarehouseStatusChanged &&
				*e.FromStatus == fulfillment.OrderStatusConfirmed &&
				*e.ToStatus == fulfillment.OrderStatusPicking &&
				e.Payload["order_item_id"] == itemA.ID.String() &&
				e.Payload["task_id"] != nil
		})).Return(nil)

		result, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: itemA.ID,
			NewStatus:   fulfillment.TaskStatusPicking,
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, result.TaskID)
		require.NotNil(t, result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusPicking, *result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusPicking, order.Status)
		r.assertExpectations(t)
	})

	t.Run("last item packed moves the order to packed", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusPicked)
		itemA, itemB := newTestItem(order.ID, 2), newTestItem(order.ID, 2)
		existing := taskFor(itemA, fulfillment.TaskStatusPicked)
		qty := decimal.NewFromInt(2)

		r.items.On("FindByID", mock.Anything, itemA.ID).Return(&itemA, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, itemA.ID).Return(&existing, nil)
		r.tasks.On("Save", mock.Anything, &existing).Return(nil)
		// The store still returns the stale status of itemA
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{
			taskFor(itemA, fulfillment.TaskStatusPicked),
			taskFor(itemB, fulfillment.TaskStatusPacked),
		}, nil)
		r.orders.On("Save", mock.Anything, order).Return(nil)
		r.audit.On("Append", mock.Anything, auditEntry(fulfillment.AuditActionWarehouseStatusChanged, fulfillment.OrderStatusPicked, fulfillment.OrderStatusPacked)).Return(nil)

		result, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID:    itemA.ID,
			NewStatus:      fulfillment.TaskStatusPacked,
			QuantityPicked: &qty,
		})
		require.NoError(t, err)

		assert.Equal(t, existing.ID, result.TaskID)
		require.NotNil(t, result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusPacked, *result.OrderStatus)
		assert.True(t, existing.QuantityPicked.Equal(qty))
		r.assertExpectations(t)
	})

	t.Run("regression on one item pulls the order back to picking", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusPacked)
		itemA, itemB := newTestItem(order.ID, 1), newTestItem(order.ID, 1)
		existing := taskFor(itemA, fulfillment.TaskStatusPacked)

		r.items.On("FindByID", mock.Anything, itemA.ID).Return(&itemA, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, itemA.ID).Return(&existing, nil)
		r.tasks.On("Save", mock.Anything, &existing).Return(nil)
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{
			taskFor(itemA, fulfillment.TaskStatusPicking),
			taskFor(itemB, fulfillment.TaskStatusPacked),
		}, nil)
		r.orders.On("Save", mock.Anything, order).Return(nil)
		r.audit.On("Append", mock.Anything, auditEntry(fulfillment.AuditActionWarehouseStatusChanged, fulfillment.OrderStatusPacked, fulfillment.OrderStatusPicking)).Return(nil)

		result, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: itemA.ID,
			NewStatus:   fulfillment.TaskStatusPicking,
		})
		require.NoError(t, err)
		require.NotNil(t, result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusPicking, *result.OrderStatus)
	})

	t.Run("no candidate still audits the task change", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusConfirmed)
		item := newTestItem(order.ID, 1)

		r.items.On("FindByID", mock.Anything, item.ID).Return(&item, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, item.ID).Return(nil, shared.ErrNotFound)
		r.tasks.On("Save", mock.Anything, mock.Anything).Return(nil)
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{}, nil)
		r.audit.On("Append", mock.Anything, statusUnchangedEntry(fulfillment.AuditActionWarehouseTaskAdvanced)).Return(nil).Once()

		result, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: item.ID,
			NewStatus:   fulfillment.TaskStatusPending,
		})
		require.NoError(t, err)
		assert.Nil(t, result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusConfirmed, order.Status)
		r.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		r.audit.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("untouched items do not hold back the derived status", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusConfirmed)
		itemA := newTestItem(order.ID, 1)

		r.items.On("FindByID", mock.Anything, itemA.ID).Return(&itemA, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, itemA.ID).Return(nil, shared.ErrNotFound)
		r.tasks.On("Save", mock.Anything, mock.Anything).Return(nil)
		// itemB exists on the order but has never been advanced, so it has no task
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{}, nil)
		r.orders.On("Save", mock.Anything, order).Return(nil)
		r.audit.On("Append", mock.Anything, auditEntry(fulfillment.AuditActionWarehouseStatusChanged, fulfillment.OrderStatusConfirmed, fulfillment.OrderStatusPacked)).Return(nil).Once()

		result, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: itemA.ID,
			NewStatus:   fulfillment.TaskStatusPacked,
		})
		require.NoError(t, err)
		require.NotNil(t, result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusPacked, *result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusPacked, order.Status)
		r.assertExpectations(t)
	})

	t.Run("candidate that is not a legal successor is skipped", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusSubmitted)
		item := newTestItem(order.ID, 1)

		r.items.On("FindByID", mock.Anything, item.ID).Return(&item, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, item.ID).Return(nil, shared.ErrNotFound)
		r.tasks.On("Save", mock.Anything, mock.Anything).Return(nil)
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{}, nil)
		r.audit.On("Append", mock.Anything, mock.MatchedBy(func(e *fulfillment.AuditLogEntry) bool {
			return e.Action == fulfillment.AuditActionWarehouseTaskAdvanced &&
				e.ToStatus == nil &&
				e.Payload["derived_status"] == string(fulfillment.OrderStatusPicking)
		})).Return(nil).Once()

		result, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: item.ID,
			NewStatus:   fulfillment.TaskStatusPicking,
		})
		require.NoError(t, err)
		assert.Nil(t, result.OrderStatus)
		assert.Equal(t, fulfillment.OrderStatusSubmitted, order.Status)
		r.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		r.audit.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("picked stamps picker", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusPicking)
		item := newTestItem(order.ID, 1)
		existing := taskFor(item, fulfillment.TaskStatusPicking)

		r.items.On("FindByID", mock.Anything, item.ID).Return(&item, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, item.ID).Return(&existing, nil)
		r.tasks.On("Save", mock.Anything, &existing).Return(nil)
		r.tasks.On("FindByOrder", mock.Anything, order.ID).Return([]fulfillment.WarehouseTask{existing}, nil)
		r.orders.On("Save", mock.Anything, order).Return(nil)
		r.audit.On("Append", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: item.ID,
			NewStatus:   fulfillment.TaskStatusPicked,
		})
		require.NoError(t, err)
		require.NotNil(t, existing.PickedAt)
		require.NotNil(t, existing.PickedBy)
		assert.Equal(t, picker.UserID, *existing.PickedBy)
		assert.Equal(t, fixedNow, *existing.PickedAt)
	})

	t.Run("quantity above ordered is rejected", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		order := newTestOrder(t, uuid.New(), fulfillment.OrderStatusConfirmed)
		item := newTestItem(order.ID, 2)
		qty := decimal.NewFromInt(3)

		r.items.On("FindByID", mock.Anything, item.ID).Return(&item, nil)
		r.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		r.tasks.On("FindByOrderItemForUpdate", mock.Anything, item.ID).Return(nil, shared.ErrNotFound)

		_, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID:    item.ID,
			NewStatus:      fulfillment.TaskStatusPicked,
			QuantityPicked: &qty,
		})
		var valErr *fulfillment.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "quantity_picked", valErr.Field)
		r.tasks.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)

		_, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: uuid.New(),
			NewStatus:   "shipped",
		})
		var valErr *fulfillment.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "new_status", valErr.Field)
	})

	t.Run("missing item", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		id := uuid.New()
		r.items.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.AdvanceWarehouseTask(ctx, picker, AdvanceWarehouseTaskCommand{
			OrderItemID: id,
			NewStatus:   fulfillment.TaskStatusPicking,
		})
		var notFound *fulfillment.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "order item", notFound.Entity)
	})

	t.Run("client may not advance tasks", func(t *testing.T) {
		r := newTestRepos()
		svc := newWarehouseService(r)
		client := fulfillment.AuthContext{UserID: uuid.New(), Role: fulfillment.RoleClient}

		_, err := svc.AdvanceWarehouseTask(ctx, client, AdvanceWarehouseTaskCommand{
			OrderItemID: uuid.New(),
			NewStatus:   fulfillment.TaskStatusPicking,
		})
		var permErr *fulfillment.PermissionError
		require.ErrorAs(t, err, &permErr)
	})
}
