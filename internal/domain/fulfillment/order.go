package fulfillment

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AggregateTypeOrder is the aggregate type recorded on order events
const AggregateTypeOrder = "Order"

// Order is the aggregate root of the fulfillment lifecycle.
// Its status only changes through TransitionTo.
type Order struct {
	shared.CompanyAggregateRoot
	Number       *string
	Status       OrderStatus
	Currency     valueobject.Currency
	SubmittedAt  *time.Time
	ConfirmedAt  *time.Time
	InvoicedAt   *time.Time
	PackedAt     *time.Time
	DispatchedAt *time.Time
}

// NewOrder creates a draft order owned by companyID
func NewOrder(companyID, createdBy uuid.UUID, currency valueobject.Currency) (*Order, error) {
	if companyID == uuid.Nil {
		return nil, &ValidationError{Field: "company_id", Reason: "is required"}
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Order{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID, createdBy),
		Status:               OrderStatusDraft,
		Currency:             currency,
	}, nil
}

// TransitionTo moves the order to target, stamping the matching timestamp.
// It returns the previous status.
func (o *Order) TransitionTo(target OrderStatus, operation string, at time.Time) (OrderStatus, error) {
	from := o.Status
	if !from.CanTransitionTo(target) {
		return from, &InvalidStateError{
			Operation: operation,
			Current:   from,
			Expected:  Predecessors(target),
		}
	}

	o.Status = target
	switch target {
	case OrderStatusSubmitted:
		o.SubmittedAt = &at
	case OrderStatusConfirmed:
		o.ConfirmedAt = &at
	case OrderStatusInvoiced:
		o.InvoicedAt = &at
	case OrderStatusPacked:
		o.PackedAt = &at
	case OrderStatusDispatched:
		o.DispatchedAt = &at
	}
	o.UpdatedAt = at
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target, operation))
	return from, nil
}

// CheckSubmittable verifies the order can be submitted given its item count.
// It is called before an order number is drawn so a rejected submission
// never consumes one.
func (o *Order) CheckSubmittable(itemCount int64) error {
	if o.Status != OrderStatusDraft {
		return &InvalidStateError{Operation: "submit", Current: o.Status, Expected: []OrderStatus{OrderStatusDraft}}
	}
	if o.Number != nil {
		return &InvalidStateError{Operation: "submit an already numbered", Current: o.Status, Expected: []OrderStatus{OrderStatusDraft}}
	}
	if itemCount < 1 {
		return &EmptyOrderError{OrderID: o.ID.String()}
	}
	return nil
}

// Submit assigns the order number and moves the order to submitted
func (o *Order) Submit(number string, itemCount int64, at time.Time) (OrderStatus, error) {
	if err := o.CheckSubmittable(itemCount); err != nil {
		return o.Status, err
	}
	if number == "" {
		return o.Status, &ValidationError{Field: "number", Reason: "is required"}
	}
	o.Number = &number
	from, err := o.TransitionTo(OrderStatusSubmitted, "submit", at)
	if err != nil {
		o.Number = nil
		return from, err
	}
	return from, nil
}

// shippableStatuses are the statuses a shipment can be created from
var shippableStatuses = []OrderStatus{
	OrderStatusPacked,
	OrderStatusReadyToShip,
	OrderStatusConfirmed,
	OrderStatusInvoiced,
}

// Dispatch moves the order to dispatched when a shipment is created
func (o *Order) Dispatch(at time.Time) (OrderStatus, error) {
	if !o.IsShippable() {
		return o.Status, &InvalidStateError{Operation: "ship", Current: o.Status, Expected: shippableStatuses}
	}
	return o.TransitionTo(OrderStatusDispatched, "ship", at)
}

// IsShippable reports whether a shipment may be created in the current status
func (o *Order) IsShippable() bool {
	for _, s := range shippableStatuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

// MarkInvoiced moves the order to invoiced when a final invoice is issued
func (o *Order) MarkInvoiced(at time.Time) (OrderStatus, error) {
	return o.TransitionTo(OrderStatusInvoiced, "finalize invoice for", at)
}

// ConfirmPayment moves a fully paid invoiced order to confirmed.
// It reports false without error when the order is not invoiced.
func (o *Order) ConfirmPayment(at time.Time) (OrderStatus, bool, error) {
	if o.Status != OrderStatusInvoiced {
		return o.Status, false, nil
	}
	from, err := o.TransitionTo(OrderStatusConfirmed, "confirm payment for", at)
	if err != nil {
		return from, false, err
	}
	return from, true, nil
}

// ApplyWarehouseStatus moves the order to the status derived from its tasks.
// It reports false when the candidate equals the current status or is not a
// legal successor, in which case the order is unchanged.
func (o *Order) ApplyWarehouseStatus(candidate OrderStatus, at time.Time) (OrderStatus, bool) {
	if candidate == o.Status || !o.Status.CanTransitionTo(candidate) {
		return o.Status, false
	}
	from, err := o.TransitionTo(candidate, "update warehouse status of", at)
	if err != nil {
		return from, false
	}
	return from, true
}

// NumberOrEmpty returns the order number, or "" before submission
func (o *Order) NumberOrEmpty() string {
	if o.Number == nil {
		return ""
	}
	return *o.Number
}
