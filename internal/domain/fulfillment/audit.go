package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names what happened to an order
type AuditAction string

const (
	AuditActionOrderSubmitted         AuditAction = "order_submitted"
	AuditActionWarehouseStatusChanged AuditAction = "warehouse_status_changed"
	AuditActionShipmentCreated        AuditAction = "shipment_created"
	AuditActionInvoiceFinalized       AuditAction = "invoice_finalized"
	AuditActionPaymentConfirmedOrder  AuditAction = "payment_confirmed_order"

	// Actions below leave the order status unchanged and carry no from/to
	AuditActionWarehouseTaskAdvanced AuditAction = "warehouse_task_advanced"
	AuditActionPaymentRecorded       AuditAction = "payment_recorded"
)

// AuditLogEntry is one immutable line of an order's history
type AuditLogEntry struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ActorID    uuid.UUID
	Action     AuditAction
	FromStatus *OrderStatus
	ToStatus   *OrderStatus
	Payload    map[string]any
	CreatedAt  time.Time
}

// NewAuditLogEntry creates an entry. from and to may be empty for actions
// that do not change the order status.
func NewAuditLogEntry(orderID, actorID uuid.UUID, action AuditAction, from, to OrderStatus, payload map[string]any, at time.Time) (*AuditLogEntry, error) {
	if orderID == uuid.Nil {
		return nil, &ValidationError{Field: "order_id", Reason: "is required"}
	}
	if action == "" {
		return nil, &ValidationError{Field: "action", Reason: "is required"}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	entry := &AuditLogEntry{
		ID:        uuid.New(),
		OrderID:   orderID,
		ActorID:   actorID,
		Action:    action,
		Payload:   payload,
		CreatedAt: at,
	}
	if from != "" {
		entry.FromStatus = &from
	}
	if to != "" {
		entry.ToStatus = &to
	}
	return entry, nil
}

// IsStatusChange reports whether the entry records a status transition
func (e *AuditLogEntry) IsStatusChange() bool {
	return e.ToStatus != nil
}

// ReplayStatus folds an ordered history into the status it leads to, starting
// from draft. It fails if an entry's from_status does not match the status
// reached so far or the step is not a legal transition.
func ReplayStatus(entries []*AuditLogEntry) (OrderStatus, error) {
	current := OrderStatusDraft
	for _, e := range entries {
		if !e.IsStatusChange() {
			continue
		}
		if e.FromStatus == nil || *e.FromStatus != current || !current.CanTransitionTo(*e.ToStatus) {
			return current, &InvalidStateError{
				Operation: "replay " + string(e.Action) + " on",
				Current:   current,
				Expected:  Predecessors(*e.ToStatus),
			}
		}
		current = *e.ToStatus
	}
	return current, nil
}
