package fulfillment

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateInvoiceNumber is returned by InvoiceRepository.Create when the
// number was taken by a concurrent transaction
var ErrDuplicateInvoiceNumber = shared.NewDomainError(shared.CodeAlreadyExists, "invoice number already taken")

// OrderRepository defines persistence for orders
type OrderRepository interface {
	// FindByID loads an order without locking it
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate loads an order and holds its row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// Save writes status, number and timestamps, checking the version
	Save(ctx context.Context, order *Order) error
}

// OrderItemRepository defines read access to order lines
type OrderItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OrderItem, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// OrderTotalsRepository reads the totals computed for an order
type OrderTotalsRepository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*OrderTotals, error)
}

// WarehouseTaskRepository defines persistence for warehouse tasks
type WarehouseTaskRepository interface {
	// FindByOrderItemForUpdate returns shared.ErrNotFound when the item has no task yet
	FindByOrderItemForUpdate(ctx context.Context, orderItemID uuid.UUID) (*WarehouseTask, error)

	// FindByOrder returns every task of every item of the order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]WarehouseTask, error)

	// Save inserts or updates a task
	Save(ctx context.Context, task *WarehouseTask) error
}

// ShipmentRepository defines persistence for shipments
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *Shipment) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)
}

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// CountByNumberPrefix counts invoices whose number starts with prefix
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)

	// Create inserts the invoice. A number collision returns
	// ErrDuplicateInvoiceNumber and leaves the transaction usable.
	Create(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, payment *Payment) error
}

// AuditLogRepository is append-only
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*AuditLogEntry, error)
}

// NotificationRepository stores notifications for external delivery
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*Notification) error
}

// UserDirectory resolves notification recipients
type UserDirectory interface {
	FindActiveIDsByRole(ctx context.Context, role Role) ([]uuid.UUID, error)
}

// OrderNumberSequence hands out strictly increasing values that are never reused
type OrderNumberSequence interface {
	Next(ctx context.Context) (int64, error)
}
