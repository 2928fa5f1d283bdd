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
	"go.uber.org/zap"
)

// PaymentService records payments against final invoices and confirms
// orders once their invoice is settled
type PaymentService struct {
	commandBase
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(scope TransactionScope, audit *AuditTrail, logger *zap.Logger) *PaymentService {
	return &PaymentService{commandBase: newCommandBase(scope, audit, logger)}
}

// WithMetrics sets the metrics recorder
func (s *PaymentService) WithMetrics(m *telemetry.FulfillmentMetrics) *PaymentService {
	s.metrics = m
	return s
}

// RecordPayment inserts a payment after checking it does not overpay the
// invoice. When the invoice becomes fully paid and the order is invoiced,
// the order moves to confirmed.
func (s *PaymentService) RecordPayment(ctx context.Context, actor fulfillment.AuthContext, cmd RecordPaymentCommand) (result *RecordPaymentResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, CommandRecordPayment,
		telemetry.SpanAttrInvoiceID, cmd.InvoiceID.String(),
		telemetry.SpanAttrAmount, cmd.Amount.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
	)
	defer span.End()

	started := time.Now()
	var changes []transition
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		s.finish(ctx, CommandRecordPayment, started, err, changes...)
		if err == nil {
			s.metrics.RecordPayment(ctx, result.FullyPaid)
		}
	}()

	if err := actor.RequireAnyRole(fulfillment.FinanceRoles...); err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if !cmd.Amount.IsPositive() {
		return nil, &fulfillment.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		changes = nil

		// Invoice first, then order: the invoice row serializes tallying
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, cmd.InvoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fulfillment.NewNotFoundError("invoice", cmd.InvoiceID)
			}
			return fmt.Errorf("failed to lock invoice: %w", err)
		}
		order, err := lockOrder(ctx, repos, invoice.OrderID)
		if err != nil {
			return err
		}

		prior, err := repos.PaymentRepo().SumByInvoice(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		settlement, err := fulfillment.Reconcile(invoice, prior, cmd.Amount)
		if err != nil {
			return err
		}

		at := s.now()
		payment, err := fulfillment.NewPayment(invoice.ID, cmd.Amount, cmd.Method, cmd.Reference, cmd.Notes, actor.UserID, at)
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		result = &RecordPaymentResult{
			PaymentID: payment.ID,
			FullyPaid: settlement.FullyPaid,
			TotalPaid: settlement.TotalPaid,
		}
		rec := AuditRecord{
			OrderID: order.ID,
			ActorID: actor.UserID,
			Action:  fulfillment.AuditActionPaymentRecorded,
			Payload: map[string]any{
				"payment_id": payment.ID.String(),
				"invoice_id": invoice.ID.String(),
				"amount":     payment.Amount.String(),
				"method":     string(payment.Method),
				"total_paid": settlement.TotalPaid.String(),
				"fully_paid": settlement.FullyPaid,
			},
			At: at,
		}

		var from fulfillment.OrderStatus
		confirmed := false
		if settlement.FullyPaid {
			if from, confirmed, err = order.ConfirmPayment(at); err != nil {
				return err
			}
		}
		if confirmed {
			if err := saveOrder(ctx, repos, order); err != nil {
				return err
			}
			rec.Action = fulfillment.AuditActionPaymentConfirmedOrder
			rec.From = from
			rec.To = order.Status
		}
		if err := s.audit.Append(ctx, repos.AuditRepo(), rec); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
		changes = append(changes, transition{from: from, to: order.Status})
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, result.PaymentID.String())
	logger.L(ctx).Info("payment recorded",
		zap.String("invoice_id", cmd.InvoiceID.String()),
		zap.String("payment_id", result.PaymentID.String()),
		zap.String("total_paid", result.TotalPaid.String()),
		zap.Bool("fully_paid", result.FullyPaid),
	)
	return result, nil
}
