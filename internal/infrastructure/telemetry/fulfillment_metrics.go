package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrCommand    = attribute.Key("command")
	AttrOutcome    = attribute.Key("outcome")
	AttrFromStatus = attribute.Key("from_status")
	AttrToStatus   = attribute.Key("to_status")
	AttrEventType  = attribute.Key("event_type")
)

// FulfillmentMetrics counts commands, order transitions, payments and outbox relays.
// A nil *FulfillmentMetrics records nothing.
type FulfillmentMetrics struct {
	commandsTotal    *Counter
	commandDuration  *Histogram
	transitionsTotal *Counter
	paymentsTotal    *Counter
	outboxRelayed    *Counter
}

// NewFulfillmentMetrics registers the fulfillment instruments on meter.
func NewFulfillmentMetrics(meter metric.Meter) (*FulfillmentMetrics, error) {
	var (
		m   FulfillmentMetrics
		err error
	)
	if m.commandsTotal, err = NewCounter(meter, "fulfillment_commands_total", "Fulfillment commands by outcome", "{command}"); err != nil {
		return nil, err
	}
	if m.commandDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "fulfillment_command_duration_seconds",
		Description: "Fulfillment command latency",
		Unit:        "s",
		Boundaries:  CommandDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.transitionsTotal, err = NewCounter(meter, "fulfillment_order_transitions_total", "Order status transitions", "{transition}"); err != nil {
		return nil, err
	}
	if m.paymentsTotal, err = NewCounter(meter, "fulfillment_payments_total", "Recorded payments", "{payment}"); err != nil {
		return nil, err
	}
	if m.outboxRelayed, err = NewCounter(meter, "fulfillment_outbox_relayed_total", "Outbox events relayed to the bus", "{event}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordCommand records one command execution and its outcome.
func (m *FulfillmentMetrics) RecordCommand(ctx context.Context, command string, started time.Time, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrCommand.String(command), AttrOutcome.String(Outcome(err))}
	m.commandsTotal.Inc(ctx, attrs...)
	m.commandDuration.RecordDuration(ctx, time.Since(started), attrs...)
}

// RecordTransition records one order status change.
func (m *FulfillmentMetrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordPayment records an accepted payment.
func (m *FulfillmentMetrics) RecordPayment(ctx context.Context, fullyPaid bool) {
	if m == nil {
		return
	}
	m.paymentsTotal.Inc(ctx, attribute.Bool("fully_paid", fullyPaid))
}

// RecordOutboxRelay records an outbox event handed to the bus.
func (m *FulfillmentMetrics) RecordOutboxRelay(ctx context.Context, eventType string, err error) {
	if m == nil {
		return
	}
	m.outboxRelayed.Inc(ctx, AttrEventType.String(eventType), AttrOutcome.String(Outcome(err)))
}

// Outcome classifies err into a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "error"
}
