package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Command names used for spans, metrics and logs
const (
	CommandSubmitOrder          = "submit_order"
	CommandAdvanceWarehouseTask = "advance_warehouse_task"
	CommandCreateShipment       = "create_shipment"
	CommandFinalizeInvoice      = "finalize_invoice"
	CommandRecordPayment        = "record_payment"
)

const serviceName = "fulfillment"

// ServiceConfig tunes the command services
type ServiceConfig struct {
	// InvoiceNumberRetries bounds the attempts to allocate a free invoice number
	InvoiceNumberRetries int
}

// DefaultServiceConfig returns the defaults used when no config is supplied
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{InvoiceNumberRetries: 5}
}

// commandBase holds what every command service needs
type commandBase struct {
	scope   TransactionScope
	audit   *AuditTrail
	metrics *telemetry.FulfillmentMetrics
	logger  *zap.Logger
	now     func() time.Time
}

func newCommandBase(scope TransactionScope, audit *AuditTrail, logger *zap.Logger) commandBase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return commandBase{
		scope:  scope,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// transition is an order status change committed by a command
type transition struct {
	from fulfillment.OrderStatus
	to   fulfillment.OrderStatus
}

// finish records the command outcome on span and metrics
func (b *commandBase) finish(ctx context.Context, command string, started time.Time, err error, changes ...transition) {
	b.metrics.RecordCommand(ctx, command, started, err)
	if err != nil {
		return
	}
	for _, c := range changes {
		b.metrics.RecordTransition(ctx, string(c.from), string(c.to))
	}
}

// lockOrder loads the order and holds its row lock for the rest of the transaction
func lockOrder(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*fulfillment.Order, error) {
	order, err := repos.OrderRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fulfillment.NewNotFoundError("order", id)
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

// saveOrder persists the order and queues its pending events in the outbox
func saveOrder(ctx context.Context, repos TransactionalRepositories, order *fulfillment.Order) error {
	if err := repos.OrderRepo().Save(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if events := order.GetDomainEvents(); len(events) > 0 {
		if err := repos.Outbox().Record(ctx, events...); err != nil {
			return fmt.Errorf("failed to record order events: %w", err)
		}
		order.ClearDomainEvents()
	}
	return nil
}

// notification is a message for a set of recipients
type notification struct {
	title   string
	message string
}

// notify stores one notification per distinct recipient and queues a
// NotificationRequestedEvent for each so the dispatcher can deliver them
// after commit
func notify(ctx context.Context, repos TransactionalRepositories, order *fulfillment.Order, recipients []uuid.UUID, n notification, at time.Time) error {
	seen := make(map[uuid.UUID]struct{}, len(recipients))
	batch := make([]*fulfillment.Notification, 0, len(recipients))
	for _, id := range recipients {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		batch = append(batch, fulfillment.NewNotification(id, order.ID, n.title, n.message, at))
	}
	if len(batch) == 0 {
		return nil
	}

	if err := repos.NotificationRepo().CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	events := make([]shared.DomainEvent, 0, len(batch))
	for _, item := range batch {
		events = append(events, fulfillment.NewNotificationRequestedEvent(item, order.CompanyID))
	}
	if err := repos.Outbox().Record(ctx, events...); err != nil {
		return fmt.Errorf("failed to record notification events: %w", err)
	}
	return nil
}
