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

// LifecycleService runs the order-level commands: submission, shipment and invoicing
type LifecycleService struct {
	commandBase
	numbers *OrderNumberGenerator
	cfg     ServiceConfig
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(scope TransactionScope, audit *AuditTrail, numbers *OrderNumberGenerator, cfg ServiceConfig, logger *zap.Logger) *LifecycleService {
	if cfg.InvoiceNumberRetries < 1 {
		cfg.InvoiceNumberRetries = DefaultServiceConfig().InvoiceNumberRetries
	}
	return &LifecycleService{
		commandBase: newCommandBase(scope, audit, logger),
		numbers:     numbers,
		cfg:         cfg,
	}
}

// WithMetrics sets the metrics recorder
func (s *LifecycleService) WithMetrics(m *telemetry.FulfillmentMetrics) *LifecycleService {
	s.metrics = m
	return s
}

// SubmitOrder numbers a draft order, moves it to submitted and notifies every admin
func (s *LifecycleService) SubmitOrder(ctx context.Context, actor fulfillment.AuthContext, cmd SubmitOrderCommand) (result *SubmitOrderResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, CommandSubmitOrder,
		telemetry.SpanAttrOrderID, cmd.OrderID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
	)
	defer span.End()

	started := time.Now()
	var change transition
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		s.finish(ctx, CommandSubmitOrder, started, err, change)
	}()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := lockOrder(ctx, repos, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := actor.RequireCompany(order.CompanyID); err != nil {
			return err
		}

		count, err := repos.ItemRepo().CountByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to count order items: %w", err)
		}
		// Reject before drawing so an invalid submission does not burn a number
		if err := order.CheckSubmittable(count); err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, repos.OrderNumbers())
		if err != nil {
			return err
		}
		at := s.now()
		from, err := order.Submit(number, count, at)
		if err != nil {
			return err
		}
		if err := saveOrder(ctx, repos, order); err != nil {
			return err
		}

		if err := s.audit.Append(ctx, repos.AuditRepo(), AuditRecord{
			OrderID: order.ID,
			ActorID: actor.UserID,
			Action:  fulfillment.AuditActionOrderSubmitted,
			From:    from,
			To:      order.Status,
			Payload: map[string]any{"order_number": number, "item_count": count},
			At:      at,
		}); err != nil {
			return err
		}

		admins, err := repos.Users().FindActiveIDsByRole(ctx, fulfillment.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to load admin users: %w", err)
		}
		if err := notify(ctx, repos, order, admins, notification{
			title:   "New order submitted",
			message: fmt.Sprintf("Order %s was submitted and awaits review.", number),
		}, at); err != nil {
			return err
		}

		change = transition{from: from, to: order.Status}
		result = &SubmitOrderResult{OrderID: order.ID, OrderNumber: number}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderNumber, result.OrderNumber)
	logger.L(ctx).Info("order submitted",
		zap.String("order_id", result.OrderID.String()),
		zap.String("order_number", result.OrderNumber),
	)
	return result, nil
}

// CreateShipment records a shipment and moves the order to dispatched
func (s *LifecycleService) CreateShipment(ctx context.Context, actor fulfillment.AuthContext, cmd CreateShipmentCommand) (result *CreateShipmentResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, CommandCreateShipment,
		telemetry.SpanAttrOrderID, cmd.OrderID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
	)
	defer span.End()

	started := time.Now()
	var change transition
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		s.finish(ctx, CommandCreateShipment, started, err, change)
	}()

	if err := actor.RequireAnyRole(fulfillment.WarehouseRoles...); err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := lockOrder(ctx, repos, cmd.OrderID)
		if err != nil {
			return err
		}

		at := s.now()
		shipment, err := fulfillment.NewShipment(order.ID, cmd.Carrier, cmd.TrackingNumber, cmd.ParcelsCount, cmd.TotalWeight, actor.UserID, at)
		if err != nil {
			return err
		}
		from, err := order.Dispatch(at)
		if err != nil {
			return err
		}

		if err := repos.ShipmentRepo().Create(ctx, shipment); err != nil {
			return fmt.Errorf("failed to create shipment: %w", err)
		}
		if err := saveOrder(ctx, repos, order); err != nil {
			return err
		}

		payload := map[string]any{
			"shipment_id":   shipment.ID.String(),
			"carrier":       shipment.Carrier,
			"parcels_count": shipment.ParcelsCount,
		}
		if shipment.TrackingNumber != "" {
			payload["tracking_number"] = shipment.TrackingNumber
		}
		if err := s.audit.Append(ctx, repos.AuditRepo(), AuditRecord{
			OrderID: order.ID,
			ActorID: actor.UserID,
			Action:  fulfillment.AuditActionShipmentCreated,
			From:    from,
			To:      order.Status,
			Payload: payload,
			At:      at,
		}); err != nil {
			return err
		}

		message := fmt.Sprintf("Order %s was handed to %s.", order.NumberOrEmpty(), shipment.Carrier)
		if shipment.TrackingNumber != "" {
			message = fmt.Sprintf("Order %s was handed to %s, tracking number %s.", order.NumberOrEmpty(), shipment.Carrier, shipment.TrackingNumber)
		}
		if err := notify(ctx, repos, order, []uuid.UUID{order.CreatedBy}, notification{
			title:   "Order dispatched",
			message: message,
		}, at); err != nil {
			return err
		}

		change = transition{from: from, to: order.Status}
		result = &CreateShipmentResult{ShipmentID: shipment.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("shipment created",
		zap.String("order_id", cmd.OrderID.String()),
		zap.String("shipment_id", result.ShipmentID.String()),
		zap.String("carrier", cmd.Carrier),
	)
	return result, nil
}

// FinalizeInvoice freezes the order totals into a numbered final invoice and
// moves the order to invoiced
func (s *LifecycleService) FinalizeInvoice(ctx context.Context, actor fulfillment.AuthContext, cmd FinalizeInvoiceCommand) (result *FinalizeInvoiceResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, CommandFinalizeInvoice,
		telemetry.SpanAttrOrderID, cmd.OrderID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
	)
	defer span.End()

	started := time.Now()
	var change transition
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		s.finish(ctx, CommandFinalizeInvoice, started, err, change)
	}()

	if err := actor.RequireAnyRole(fulfillment.FinanceRoles...); err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := lockOrder(ctx, repos, cmd.OrderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(fulfillment.OrderStatusInvoiced) {
			return &fulfillment.InvalidStateError{
				Operation: "finalize invoice for",
				Current:   order.Status,
				Expected:  fulfillment.Predecessors(fulfillment.OrderStatusInvoiced),
			}
		}

		totals, err := repos.TotalsRepo().FindByOrder(ctx, order.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fulfillment.NewNotFoundError("order totals", order.ID)
			}
			return fmt.Errorf("failed to load order totals: %w", err)
		}

		at := s.now()
		invoice, err := s.issueInvoice(ctx, repos.InvoiceRepo(), totals, actor.UserID, at)
		if err != nil {
			return err
		}

		from, err := order.MarkInvoiced(at)
		if err != nil {
			return err
		}
		if err := saveOrder(ctx, repos, order); err != nil {
			return err
		}

		if err := s.audit.Append(ctx, repos.AuditRepo(), AuditRecord{
			OrderID: order.ID,
			ActorID: actor.UserID,
			Action:  fulfillment.AuditActionInvoiceFinalized,
			From:    from,
			To:      order.Status,
			Payload: map[string]any{
				"invoice_id":     invoice.ID.String(),
				"invoice_number": invoice.InvoiceNumber,
				"grand_total":    invoice.GrandTotal.String(),
				"currency":       invoice.Currency.String(),
			},
			At: at,
		}); err != nil {
			return err
		}

		change = transition{from: from, to: order.Status}
		result = &FinalizeInvoiceResult{InvoiceID: invoice.ID, InvoiceNumber: invoice.InvoiceNumber}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, result.InvoiceID.String())
	logger.L(ctx).Info("invoice finalized",
		zap.String("order_id", cmd.OrderID.String()),
		zap.String("invoice_id", result.InvoiceID.String()),
		zap.String("invoice_number", result.InvoiceNumber),
	)
	return result, nil
}

// issueInvoice allocates the next yearly invoice number and inserts the
// invoice. A number taken by a concurrent transaction is recomputed and
// retried up to cfg.InvoiceNumberRetries times.
func (s *LifecycleService) issueInvoice(ctx context.Context, repo fulfillment.InvoiceRepository, totals *fulfillment.OrderTotals, createdBy uuid.UUID, at time.Time) (*fulfillment.Invoice, error) {
	year := at.Year()
	prefix := fulfillment.InvoiceNumberPrefix(year)

	for attempt := 1; attempt <= s.cfg.InvoiceNumberRetries; attempt++ {
		count, err := repo.CountByNumberPrefix(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to count invoices: %w", err)
		}

		invoice, err := fulfillment.NewFinalInvoice(totals, fulfillment.FormatInvoiceNumber(year, count+1), createdBy, at)
		if err != nil {
			return nil, err
		}

		err = repo.Create(ctx, invoice)
		if err == nil {
			return invoice, nil
		}
		if !errors.Is(err, fulfillment.ErrDuplicateInvoiceNumber) {
			return nil, fmt.Errorf("failed to create invoice: %w", err)
		}
		logger.L(ctx).Warn("invoice number taken, retrying",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("no free invoice number after %d attempts: %w", s.cfg.InvoiceNumberRetries, fulfillment.ErrDuplicateInvoiceNumber)
}
