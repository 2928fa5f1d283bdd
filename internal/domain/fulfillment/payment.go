package fulfillment

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCash, PaymentMethodCheque, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is an immutable record of money received against an invoice
type Payment struct {
	ID         uuid.UUID
	InvoiceID  uuid.UUID
	Amount     decimal.Decimal
	Method     PaymentMethod
	Reference  string
	Notes      string
	RecordedBy uuid.UUID
	CreatedAt  time.Time
}

// NewPayment creates a payment record
func NewPayment(invoiceID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference, notes string, recordedBy uuid.UUID, at time.Time) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, &ValidationError{Field: "invoice_id", Reason: "is required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !method.IsValid() {
		return nil, &ValidationError{Field: "method", Reason: "is not a supported payment method"}
	}
	return &Payment{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		Amount:     amount,
		Method:     method,
		Reference:  reference,
		Notes:      notes,
		RecordedBy: recordedBy,
		CreatedAt:  at,
	}, nil
}

// Settlement is the outcome of tallying a new payment against an invoice
type Settlement struct {
	TotalPaid decimal.Decimal
	FullyPaid bool
}

// Reconcile adds amount to the prior total and decides whether the invoice is
// settled. The overpayment check is exact; the fully-paid check tolerates a
// difference below one minor unit of the invoice currency.
func Reconcile(invoice *Invoice, priorTotal, amount decimal.Decimal) (Settlement, error) {
	newTotal := priorTotal.Add(amount)
	if newTotal.GreaterThan(invoice.GrandTotal) {
		return Settlement{}, &OverpaymentError{
			InvoiceID:  invoice.ID.String(),
			GrandTotal: invoice.GrandTotal,
			NewTotal:   newTotal,
		}
	}

	currency := invoice.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	diff := newTotal.Sub(invoice.GrandTotal).Abs()
	return Settlement{
		TotalPaid: newTotal,
		FullyPaid: diff.LessThan(currency.MinorUnit()),
	}, nil
}
