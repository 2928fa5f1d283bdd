package fulfillment

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitOrderCommand moves a draft order to submitted
type SubmitOrderCommand struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// SubmitOrderResult is returned by SubmitOrder
type SubmitOrderResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// AdvanceWarehouseTaskCommand updates the warehouse task of one order item
type AdvanceWarehouseTaskCommand struct {
	OrderItemID    uuid.UUID              `json:"order_item_id" validate:"required"`
	NewStatus      fulfillment.TaskStatus `json:"new_status" validate:"required,oneof=pending picking picked packed"`
	QuantityPicked *decimal.Decimal       `json:"quantity_picked,omitempty"`
	LocationNote   *string                `json:"location_note,omitempty" validate:"omitempty,max=500"`
}

// AdvanceWarehouseTaskResult is returned by AdvanceWarehouseTask.
// OrderStatus is nil when the order status did not change.
type AdvanceWarehouseTaskResult struct {
	TaskID      uuid.UUID                `json:"task_id"`
	OrderStatus *fulfillment.OrderStatus `json:"order_status"`
}

// CreateShipmentCommand hands an order over to a carrier
type CreateShipmentCommand struct {
	OrderID        uuid.UUID        `json:"order_id" validate:"required"`
	Carrier        string           `json:"carrier" validate:"required,max=100"`
	TrackingNumber string           `json:"tracking_number,omitempty" validate:"max=100"`
	ParcelsCount   int              `json:"parcels_count,omitempty" validate:"gte=0,lte=9999"`
	TotalWeight    *decimal.Decimal `json:"total_weight,omitempty"`
}

// CreateShipmentResult is returned by CreateShipment
type CreateShipmentResult struct {
	ShipmentID uuid.UUID `json:"shipment_id"`
}

// FinalizeInvoiceCommand issues the final invoice of an order
type FinalizeInvoiceCommand struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// FinalizeInvoiceResult is returned by FinalizeInvoice
type FinalizeInvoiceResult struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
}

// RecordPaymentCommand records money received against an invoice
type RecordPaymentCommand struct {
	InvoiceID uuid.UUID                 `json:"invoice_id" validate:"required"`
	Amount    decimal.Decimal           `json:"amount"`
	Method    fulfillment.PaymentMethod `json:"method" validate:"required,oneof=bank_transfer card cash cheque other"`
	Reference string                    `json:"reference,omitempty" validate:"max=100"`
	Notes     string                    `json:"notes,omitempty" validate:"max=1000"`
}

// RecordPaymentResult is returned by RecordPayment
type RecordPaymentResult struct {
	PaymentID uuid.UUID       `json:"payment_id"`
	FullyPaid bool            `json:"fully_paid"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// AuditEntryView is the read model of one audit entry
type AuditEntryView struct {
	ID         uuid.UUID                `json:"id"`
	OrderID    uuid.UUID                `json:"order_id"`
	ActorID    uuid.UUID                `json:"actor_id"`
	Action     fulfillment.AuditAction  `json:"action"`
	FromStatus *fulfillment.OrderStatus `json:"from_status"`
	ToStatus   *fulfillment.OrderStatus `json:"to_status"`
	Payload    map[string]any           `json:"payload"`
	CreatedAt  time.Time                `json:"created_at"`
}

// ToAuditEntryViews converts domain entries to views
func ToAuditEntryViews(entries []*fulfillment.AuditLogEntry) []AuditEntryView {
	views := make([]AuditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, AuditEntryView{
			ID:         e.ID,
			OrderID:    e.OrderID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Payload:    e.Payload,
			CreatedAt:  e.CreatedAt,
		})
	}
	return views
}
