package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaskStatus is the fulfillment progress of a single order item
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusPicking TaskStatus = "picking"
	TaskStatusPicked  TaskStatus = "picked"
	TaskStatusPacked  TaskStatus = "packed"
)

// IsValid checks if the status is a known TaskStatus
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusPicking, TaskStatusPicked, TaskStatusPacked:
		return true
	}
	return false
}

// String returns the string representation of TaskStatus
func (s TaskStatus) String() string {
	return string(s)
}

// WarehouseTask tracks picking and packing of one order item.
// Tasks may move in any direction, e.g. back to pending when an item is re-opened.
type WarehouseTask struct {
	ID             uuid.UUID
	OrderItemID    uuid.UUID
	Status         TaskStatus
	QuantityPicked decimal.Decimal
	LocationNote   string
	PickedAt       *time.Time
	PickedBy       *uuid.UUID
	UpdatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewWarehouseTask creates a pending task for an order item
func NewWarehouseTask(orderItemID uuid.UUID) *WarehouseTask {
	now := time.Now()
	return &WarehouseTask{
		ID:             uuid.New(),
		OrderItemID:    orderItemID,
		Status:         TaskStatusPending,
		QuantityPicked: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TaskUpdate carries the fields of one advancement call
type TaskUpdate struct {
	Status         TaskStatus
	QuantityPicked *decimal.Decimal
	LocationNote   *string
	Actor          uuid.UUID
	At             time.Time
}

// Advance applies an update. maxQuantity bounds quantity_picked.
// picked_at and picked_by are only stamped when the new status is picked.
func (t *WarehouseTask) Advance(u TaskUpdate, maxQuantity decimal.Decimal) error {
	if !u.Status.IsValid() {
		return &ValidationError{Field: "new_status", Reason: "must be one of pending, picking, picked, packed"}
	}
	if u.QuantityPicked != nil {
		if u.QuantityPicked.IsNegative() {
			return &ValidationError{Field: "quantity_picked", Reason: "cannot be negative"}
		}
		if u.QuantityPicked.GreaterThan(maxQuantity) {
			return &ValidationError{Field: "quantity_picked", Reason: "exceeds ordered quantity " + maxQuantity.String()}
		}
		t.QuantityPicked = *u.QuantityPicked
	}
	if u.LocationNote != nil {
		t.LocationNote = *u.LocationNote
	}

	t.Status = u.Status
	if u.Status == TaskStatusPicked {
		at := u.At
		actor := u.Actor
		t.PickedAt = &at
		t.PickedBy = &actor
	}
	t.UpdatedBy = u.Actor
	t.UpdatedAt = u.At
	return nil
}

// TaskStatusCounts counts tasks per status
type TaskStatusCounts map[TaskStatus]int

// CountTaskStatuses tallies the given statuses
func CountTaskStatuses(statuses []TaskStatus) TaskStatusCounts {
	counts := make(TaskStatusCounts, 4)
	for _, s := range statuses {
		counts[s]++
	}
	return counts
}

// DeriveOrderStatus computes the order-level warehouse status from the full set
// of task statuses of an order, in priority order:
//  1. every task packed            -> packed
//  2. every task picked or packed  -> picked
//  3. any task picking             -> picking
//  4. otherwise                    -> no candidate
//
// The caller must pass every task of the order; deriving from a subset can
// miss a regressed item.
func DeriveOrderStatus(statuses []TaskStatus) (OrderStatus, bool) {
	if len(statuses) == 0 {
		return "", false
	}

	counts := CountTaskStatuses(statuses)
	total := len(statuses)

	switch {
	case counts[TaskStatusPacked] == total:
		return OrderStatusPacked, true
	case counts[TaskStatusPicked]+counts[TaskStatusPacked] == total:
		return OrderStatusPicked, true
	case counts[TaskStatusPicking] > 0:
		return OrderStatusPicking, true
	}
	return "", false
}
