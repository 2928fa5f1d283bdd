package fulfillment

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

type MockOrderTotalsRepository struct {
	mock.Mock
}

func (m *MockOrderTotalsRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*fulfillment.OrderTotals, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.OrderTotals), args.Error(1)
}

type MockWarehouseTaskRepository struct {
	mock.Mock
}

func (m *MockWarehouseTaskRepository) FindByOrderItemForUpdate(ctx context.Context, orderItemID uuid.UUID) (*fulfillment.WarehouseTask, error) {
	args := m.Called(ctx, orderItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.WarehouseTask), args.Error(1)
}

func (m *MockWarehouseTaskRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.WarehouseTask, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.WarehouseTask), args.Error(1)
}

func (m *MockWarehouseTaskRepository) Save(ctx context.Context, task *fulfillment.WarehouseTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(ctx context.Context, shipment *fulfillment.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

func (m *MockShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.Shipment), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *fulfillment.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *fulfillment.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *fulfillment.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*fulfillment.AuditLogEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fulfillment.AuditLogEntry), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []*fulfillment.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindActiveIDsByRole(ctx context.Context, role fulfillment.Role) ([]uuid.UUID, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockOrderNumberSequence struct {
	mock.Mock
}

func (m *MockOrderNumberSequence) Next(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventRecorder keeps every recorded event
type MockEventRecorder struct {
	events []shared.DomainEvent
	err    error
}

func (m *MockEventRecorder) Record(_ context.Context, events ...shared.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventRecorder) ofType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range m.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// testRepos bundles one mock per repository
type testRepos struct {
	orders        *MockOrderRepository
	items         *MockOrderItemRepository
	totals        *MockOrderTotalsRepository
	tasks         *MockWarehouseTaskRepository
	shipments     *MockShipmentRepository
	invoices      *MockInvoiceRepository
	payments      *MockPaymentRepository
	audit         *MockAuditLogRepository
	notifications *MockNotificationRepository
	users         *MockUserDirectory
	numbers       *MockOrderNumberSequence
	outbox        *MockEventRecorder
}

func newTestRepos() *testRepos {
	return &testRepos{
		orders:        new(MockOrderRepository),
		items:         new(MockOrderItemRepository),
		totals:        new(MockOrderTotalsRepository),
		tasks:         new(MockWarehouseTaskRepository),
		shipments:     new(MockShipmentRepository),
		invoices:      new(MockInvoiceRepository),
		payments:      new(MockPaymentRepository),
		audit:         new(MockAuditLogRepository),
		notifications: new(MockNotificationRepository),
		users:         new(MockUserDirectory),
		numbers:       new(MockOrderNumberSequence),
		outbox:        &MockEventRecorder{},
	}
}

func (r *testRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(Repositories{
		Orders:        r.orders,
		Items:         r.items,
		Totals:        r.totals,
		Tasks:         r.tasks,
		Shipments:     r.shipments,
		Invoices:      r.invoices,
		Payments:      r.payments,
		Audit:         r.audit,
		Notifications: r.notifications,
		Users:         r.users,
		OrderNumbers:  r.numbers,
		Outbox:        r.outbox,
	})
}

func (r *testRepos) assertExpectations(t mock.TestingT) {
	r.orders.AssertExpectations(t)
	r.items.AssertExpectations(t)
	r.totals.AssertExpectations(t)
	r.tasks.AssertExpectations(t)
	r.shipments.AssertExpectations(t)
	r.invoices.AssertExpectations(t)
	r.payments.AssertExpectations(t)
	r.audit.AssertExpectations(t)
	r.notifications.AssertExpectations(t)
	r.users.AssertExpectations(t)
	r.numbers.AssertExpectations(t)
}
