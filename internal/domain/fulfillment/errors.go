package fulfillment

import (
	"fmt"
	"strings"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Each error below unwraps to a coded shared.DomainError so the HTTP layer can
// map it to a status without knowing the concrete type.

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return shared.NewDomainError(shared.CodeNotFound, e.Error())
}

// NewNotFoundError creates a NotFoundError for the given entity name and id
func NewNotFoundError(entity string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// PermissionError reports a role or ownership mismatch
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Reason
}

func (e *PermissionError) Unwrap() error {
	return shared.NewDomainError(shared.CodeForbidden, e.Error())
}

// InvalidStateError reports that the order is not in a status the operation accepts
type InvalidStateError struct {
	Operation string
	Current   OrderStatus
	Expected  []OrderStatus
}

func (e *InvalidStateError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		expected[i] = s.String()
	}
	return fmt.Sprintf("cannot %s order in status %s (expected %s)", e.Operation, e.Current, strings.Join(expected, ", "))
}

func (e *InvalidStateError) Unwrap() error {
	return shared.NewDomainError(shared.CodeInvalidState, e.Error())
}

// EmptyOrderError reports a submission of an order without items
type EmptyOrderError struct {
	OrderID string
}

func (e *EmptyOrderError) Error() string {
	return fmt.Sprintf("order %s has no items", e.OrderID)
}

func (e *EmptyOrderError) Unwrap() error {
	return shared.NewDomainError(shared.CodeEmptyOrder, e.Error())
}

// OverpaymentError reports a payment that would push the paid total above the invoice total
type OverpaymentError struct {
	InvoiceID  string
	GrandTotal decimal.Decimal
	NewTotal   decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment would bring invoice %s to %s, exceeding its total of %s",
		e.InvoiceID, e.NewTotal.String(), e.GrandTotal.String())
}

func (e *OverpaymentError) Unwrap() error {
	return shared.NewDomainError(shared.CodeOverpayment, e.Error())
}

// ValidationError reports a missing or malformed field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return shared.NewDomainError(shared.CodeValidation, e.Error())
}
