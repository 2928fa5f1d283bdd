package persistence

import (
	"context"
	"fmt"
	"time"

	appfulfillment "github.com/erp/fulfillment/internal/application/fulfillment"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/infrastructure/event"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LockRetryPolicy controls how a transaction that lost a lock race is retried
type LockRetryPolicy struct {
	Attempts    int
	BaseBackoff time.Duration
	// LockTimeout is applied with SET LOCAL lock_timeout on PostgreSQL; zero waits forever
	LockTimeout time.Duration
}

// DefaultLockRetryPolicy returns three attempts with a 50ms base backoff
func DefaultLockRetryPolicy() LockRetryPolicy {
	return LockRetryPolicy{Attempts: 3, BaseBackoff: 50 * time.Millisecond, LockTimeout: 5 * time.Second}
}

// LockRetryPolicyFrom builds the policy from application config
func LockRetryPolicyFrom(cfg config.FulfillmentConfig) LockRetryPolicy {
	p := DefaultLockRetryPolicy()
	if cfg.LockRetryAttempts > 0 {
		p.Attempts = cfg.LockRetryAttempts
	}
	if cfg.LockRetryBackoff > 0 {
		p.BaseBackoff = cfg.LockRetryBackoff
	}
	if cfg.LockTimeout > 0 {
		p.LockTimeout = cfg.LockTimeout
	}
	return p
}

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every command runs in one transaction; lock contention restarts the whole
// unit of work, business errors never do.
type GormTransactionScope struct {
	db        *gorm.DB
	publisher *event.OutboxPublisher
	policy    LockRetryPolicy
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, publisher *event.OutboxPublisher, policy LockRetryPolicy) *GormTransactionScope {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &GormTransactionScope{db: db, publisher: publisher, policy: policy}
}

// Execute runs fn in a transaction, committing when it returns nil
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfulfillment.TransactionalRepositories) error) error {
	var err error
	for attempt := 1; attempt <= s.policy.Attempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.applyLockTimeout(tx); err != nil {
				return err
			}
			return fn(&gormTransactionalRepositories{tx: tx, publisher: s.publisher})
		})
		if err == nil || !IsLockContention(err) || attempt == s.policy.Attempts {
			return err
		}

		backoff := s.policy.BaseBackoff * time.Duration(1<<(attempt-1))
		logger.L(ctx).Warn("transaction lost a lock race, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func (s *GormTransactionScope) applyLockTimeout(tx *gorm.DB) error {
	if s.policy.LockTimeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	ms := s.policy.LockTimeout.Milliseconds()
	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)).Error; err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}
	return nil
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx        *gorm.DB
	publisher *event.OutboxPublisher
}

func (r *gormTransactionalRepositories) OrderRepo() fulfillment.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) ItemRepo() fulfillment.OrderItemRepository {
	return NewGormOrderItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) TotalsRepo() fulfillment.OrderTotalsRepository {
	return NewGormOrderTotalsRepository(r.tx)
}

func (r *gormTransactionalRepositories) TaskRepo() fulfillment.WarehouseTaskRepository {
	return NewGormWarehouseTaskRepository(r.tx)
}

func (r *gormTransactionalRepositories) ShipmentRepo() fulfillment.ShipmentRepository {
	return NewGormShipmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoiceRepo() fulfillment.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentRepo() fulfillment.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) AuditRepo() fulfillment.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx)
}

func (r *gormTransactionalRepositories) NotificationRepo() fulfillment.NotificationRepository {
	return NewGormNotificationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Users() fulfillment.UserDirectory {
	return NewGormUserDirectory(r.tx)
}

func (r *gormTransactionalRepositories) OrderNumbers() fulfillment.OrderNumberSequence {
	return NewGormOrderNumberSequence(r.tx)
}

func (r *gormTransactionalRepositories) Outbox() appfulfillment.EventRecorder {
	return &outboxRecorder{tx: r.tx, publisher: r.publisher}
}

// outboxRecorder writes events to outbox_events through the command transaction
type outboxRecorder struct {
	tx        *gorm.DB
	publisher *event.OutboxPublisher
}

func (o *outboxRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if o.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := o.publisher.PublishWithTx(ctx, o.tx, events...); err != nil {
		return fmt.Errorf("failed to write outbox events: %w", err)
	}
	return nil
}

var _ appfulfillment.TransactionScope = (*GormTransactionScope)(nil)

var _ appfulfillment.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
