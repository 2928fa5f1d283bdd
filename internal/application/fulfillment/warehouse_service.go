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

// WarehouseService advances per-item warehouse tasks and derives the order status from them
type WarehouseService struct {
	commandBase
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(scope TransactionScope, audit *AuditTrail, logger *zap.Logger) *WarehouseService {
	return &WarehouseService{commandBase: newCommandBase(scope, audit, logger)}
}

// WithMetrics sets the metrics recorder
func (s *WarehouseService) WithMetrics(m *telemetry.FulfillmentMetrics) *WarehouseService {
	s.metrics = m
	return s
}

// AdvanceWarehouseTask upserts the task of one order item, then rescans every
// task of the order to derive the order status
func (s *WarehouseService) AdvanceWarehouseTask(ctx context.Context, actor fulfillment.AuthContext, cmd AdvanceWarehouseTaskCommand) (result *AdvanceWarehouseTaskResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, CommandAdvanceWarehouseTask,
		telemetry.SpanAttrItemID, cmd.OrderItemID.String(),
		telemetry.SpanAttrTaskStatus, string(cmd.NewStatus),
		telemetry.SpanAttrActorID, actor.UserID.String(),
	)
	defer span.End()

	started := time.Now()
	var changes []transition
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		s.finish(ctx, CommandAdvanceWarehouseTask, started, err, changes...)
	}()

	if err := actor.RequireAnyRole(fulfillment.WarehouseRoles...); err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		changes = nil

		item, err := repos.ItemRepo().FindByID(ctx, cmd.OrderItemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fulfillment.NewNotFoundError("order item", cmd.OrderItemID)
			}
			return fmt.Errorf("failed to load order item: %w", err)
		}

		// The order row serializes concurrent advancements on sibling items
		order, err := lockOrder(ctx, repos, item.OrderID)
		if err != nil {
			return err
		}

		task, err := repos.TaskRepo().FindByOrderItemForUpdate(ctx, item.ID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			task = fulfillment.NewWarehouseTask(item.ID)
		case err != nil:
			return fmt.Errorf("failed to load warehouse task: %w", err)
		}

		at := s.now()
		if err := task.Advance(fulfillment.TaskUpdate{
			Status:         cmd.NewStatus,
			QuantityPicked: cmd.QuantityPicked,
			LocationNote:   cmd.LocationNote,
			Actor:          actor.UserID,
			At:             at,
		}, item.Quantity); err != nil {
			return err
		}
		if err := repos.TaskRepo().Save(ctx, task); err != nil {
			return fmt.Errorf("failed to save warehouse task: %w", err)
		}

		statuses, err := orderTaskStatuses(ctx, repos, order.ID, task)
		if err != nil {
			return err
		}

		result = &AdvanceWarehouseTaskResult{TaskID: task.ID}

		counts := fulfillment.CountTaskStatuses(statuses)
		countPayload := make(map[string]any, len(counts))
		for status, n := range counts {
			countPayload[string(status)] = n
		}
		rec := AuditRecord{
			OrderID: order.ID,
			ActorID: actor.UserID,
			Action:  fulfillment.AuditActionWarehouseTaskAdvanced,
			Payload: map[string]any{
				"task_id":       task.ID.String(),
				"order_item_id": item.ID.String(),
				"task_status":   string(task.Status),
				"task_counts":   countPayload,
			},
			At: at,
		}

		var from fulfillment.OrderStatus
		changed := false
		if candidate, ok := fulfillment.DeriveOrderStatus(statuses); ok {
			rec.Payload["derived_status"] = string(candidate)
			from, changed = order.ApplyWarehouseStatus(candidate, at)
			if !changed {
				logger.L(ctx).Debug("derived warehouse status not applied",
					zap.String("order_id", order.ID.String()),
					zap.String("current", string(order.Status)),
					zap.String("candidate", string(candidate)),
				)
			}
		}
		if changed {
			if err := saveOrder(ctx, repos, order); err != nil {
				return err
			}
			rec.Action = fulfillment.AuditActionWarehouseStatusChanged
			rec.From = from
			rec.To = order.Status
		}
		if err := s.audit.Append(ctx, repos.AuditRepo(), rec); err != nil {
			return err
		}
		if !changed {
			return nil
		}

		status := order.Status
		result.OrderStatus = &status
		changes = append(changes, transition{from: from, to: status})
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("order_item_id", cmd.OrderItemID.String()),
		zap.String("task_id", result.TaskID.String()),
		zap.String("task_status", string(cmd.NewStatus)),
	}
	if result.OrderStatus != nil {
		fields = append(fields, zap.String("order_status", string(*result.OrderStatus)))
	}
	logger.L(ctx).Info("warehouse task advanced", fields...)
	return result, nil
}

// orderTaskStatuses returns the status of every existing task of the order.
// Items not yet touched have no task and take no part in the derivation.
// current overrides whatever the store returned for its item so the
// derivation always sees the update just made.
func orderTaskStatuses(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID, current *fulfillment.WarehouseTask) ([]fulfillment.TaskStatus, error) {
	tasks, err := repos.TaskRepo().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouse tasks: %w", err)
	}

	statuses := make([]fulfillment.TaskStatus, 0, len(tasks)+1)
	seen := false
	for _, t := range tasks {
		if t.OrderItemID == current.OrderItemID {
			seen = true
			statuses = append(statuses, current.Status)
			continue
		}
		statuses = append(statuses, t.Status)
	}
	if !seen {
		statuses = append(statuses, current.Status)
	}
	return statuses, nil
}
