package fulfillment

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
)

// TransactionScope runs a unit of work inside one database transaction.
// All repositories handed to fn share that transaction, and any error
// returned by fn rolls the whole unit back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current transaction
type TransactionalRepositories interface {
	OrderRepo() fulfillment.OrderRepository
	ItemRepo() fulfillment.OrderItemRepository
	TotalsRepo() fulfillment.OrderTotalsRepository
	TaskRepo() fulfillment.WarehouseTaskRepository
	ShipmentRepo() fulfillment.ShipmentRepository
	InvoiceRepo() fulfillment.InvoiceRepository
	PaymentRepo() fulfillment.PaymentRepository
	AuditRepo() fulfillment.AuditLogRepository
	NotificationRepo() fulfillment.NotificationRepository
	Users() fulfillment.UserDirectory
	OrderNumbers() fulfillment.OrderNumberSequence
	Outbox() EventRecorder
}

// EventRecorder writes domain events to the outbox of the current transaction
type EventRecorder interface {
	Record(ctx context.Context, events ...shared.DomainEvent) error
}

// Repositories groups the repositories served by NoOpTransactionScope
type Repositories struct {
	Orders        fulfillment.OrderRepository
	Items         fulfillment.OrderItemRepository
	Totals        fulfillment.OrderTotalsRepository
	Tasks         fulfillment.WarehouseTaskRepository
	Shipments     fulfillment.ShipmentRepository
	Invoices      fulfillment.InvoiceRepository
	Payments      fulfillment.PaymentRepository
	Audit         fulfillment.AuditLogRepository
	Notifications fulfillment.NotificationRepository
	Users         fulfillment.UserDirectory
	OrderNumbers  fulfillment.OrderNumberSequence
	Outbox        EventRecorder
}

// NoOpTransactionScope runs fn directly against the given repositories
// without a transaction. It is meant for tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute calls fn once
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) OrderRepo() fulfillment.OrderRepository { return s.repos.Orders }
func (s *NoOpTransactionScope) ItemRepo() fulfillment.OrderItemRepository { return s.repos.Items }
func (s *NoOpTransactionScope) TotalsRepo() fulfillment.OrderTotalsRepository { return s.repos.Totals }
func (s *NoOpTransactionScope) TaskRepo() fulfillment.WarehouseTaskRepository { return s.repos.Tasks }
func (s *NoOpTransactionScope) ShipmentRepo() fulfillment.ShipmentRepository { return s.repos.Shipments }
func (s *NoOpTransactionScope) InvoiceRepo() fulfillment.InvoiceRepository { return s.repos.Invoices }
func (s *NoOpTransactionScope) PaymentRepo() fulfillment.PaymentRepository { return s.repos.Payments }
func (s *NoOpTransactionScope) AuditRepo() fulfillment.AuditLogRepository { return s.repos.Audit }
func (s *NoOpTransactionScope) NotificationRepo() fulfillment.NotificationRepository {
	return s.repos.Notifications
}
func (s *NoOpTransactionScope) Users() fulfillment.UserDirectory { return s.repos.Users }
func (s *NoOpTransactionScope) OrderNumbers() fulfillment.OrderNumberSequence { return s.repos.OrderNumbers }
func (s *NoOpTransactionScope) Outbox() EventRecorder { return s.repos.Outbox }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
