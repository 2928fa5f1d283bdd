package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditTrail appends and reads the per-order history of lifecycle actions
type AuditTrail struct {
	orders  fulfillment.OrderRepository
	entries fulfillment.AuditLogRepository
	logger  *zap.Logger
}

// NewAuditTrail creates an AuditTrail. orders and entries are used by
// ListByOrder outside of any transaction.
func NewAuditTrail(orders fulfillment.OrderRepository, entries fulfillment.AuditLogRepository, logger *zap.Logger) *AuditTrail {
	return &AuditTrail{orders: orders, entries: entries, logger: logger}
}

// AuditRecord describes one audited action
type AuditRecord struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Action  fulfillment.AuditAction
	From    fulfillment.OrderStatus
	To      fulfillment.OrderStatus
	Payload map[string]any
	At      time.Time
}

// Append writes rec through repo. repo must belong to the transaction that
// performs the audited change so the entry commits or rolls back with it.
func (a *AuditTrail) Append(ctx context.Context, repo fulfillment.AuditLogRepository, rec AuditRecord) error {
	entry, err := fulfillment.NewAuditLogEntry(rec.OrderID, rec.ActorID, rec.Action, rec.From, rec.To, rec.Payload, rec.At)
	if err != nil {
		return err
	}
	if err := repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	logger.L(ctx).Debug("audit entry appended",
		zap.String("order_id", rec.OrderID.String()),
		zap.String("action", string(rec.Action)),
		zap.String("from", string(rec.From)),
		zap.String("to", string(rec.To)),
	)
	return nil
}

// ListByOrder returns the history of an order, oldest first
func (a *AuditTrail) ListByOrder(ctx context.Context, actor fulfillment.AuthContext, orderID uuid.UUID) ([]AuditEntryView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "audit_trail", "list_by_order",
		telemetry.SpanAttrOrderID, orderID.String(),
	)
	defer span.End()

	if err := actor.RequireAnyRole(fulfillment.FinanceRoles...); err != nil {
		return nil, err
	}

	if _, err := a.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fulfillment.NewNotFoundError("order", orderID)
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	entries, err := a.entries.FindByOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	return ToAuditEntryViews(entries), nil
}
