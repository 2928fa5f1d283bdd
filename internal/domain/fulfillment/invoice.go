package fulfillment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes proforma from final invoices
type InvoiceType string

const (
	InvoiceTypeProforma InvoiceType = "proforma"
	InvoiceTypeFinal    InvoiceType = "final"
)

// invoiceSequenceWidth is the zero-padded width of the yearly sequence
const invoiceSequenceWidth = 5

// OrderTotals are the computed totals of an order, produced by the pricing side
// of the system. An invoice copies them at issue time.
type OrderTotals struct {
	OrderID      uuid.UUID
	ItemsNet     decimal.Decimal
	VATAmount    decimal.Decimal
	ItemsGross   decimal.Decimal
	ShippingCost decimal.Decimal
	GrandTotal   decimal.Decimal
	Currency     valueobject.Currency
	ComputedAt   time.Time
}

// Invoice is a frozen snapshot of an order's totals
type Invoice struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Type          InvoiceType
	InvoiceNumber string
	ItemsNet      decimal.Decimal
	VATAmount     decimal.Decimal
	ItemsGross    decimal.Decimal
	ShippingCost  decimal.Decimal
	GrandTotal    decimal.Decimal
	Currency      valueobject.Currency
	IssuedAt      time.Time
	CreatedBy     uuid.UUID
}

// NewFinalInvoice freezes totals into a final invoice
func NewFinalInvoice(totals *OrderTotals, number string, createdBy uuid.UUID, at time.Time) (*Invoice, error) {
	if totals == nil {
		return nil, &ValidationError{Field: "totals", Reason: "are required"}
	}
	if _, _, err := ParseInvoiceNumber(number); err != nil {
		return nil, err
	}
	if totals.GrandTotal.IsNegative() {
		return nil, &ValidationError{Field: "grand_total", Reason: "cannot be negative"}
	}
	currency := totals.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Invoice{
		ID:            uuid.New(),
		OrderID:       totals.OrderID,
		Type:          InvoiceTypeFinal,
		InvoiceNumber: number,
		ItemsNet:      totals.ItemsNet,
		VATAmount:     totals.VATAmount,
		ItemsGross:    totals.ItemsGross,
		ShippingCost:  totals.ShippingCost,
		GrandTotal:    totals.GrandTotal,
		Currency:      currency,
		IssuedAt:      at,
		CreatedBy:     createdBy,
	}, nil
}

// InvoiceNumberPrefix returns the prefix shared by all invoice numbers of a year
func InvoiceNumberPrefix(year int) string {
	return fmt.Sprintf("INV-%d-", year)
}

// FormatInvoiceNumber renders INV-<year>-<5-digit-seq>
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%0*d", InvoiceNumberPrefix(year), invoiceSequenceWidth, seq)
}

// ParseInvoiceNumber splits an invoice number into year and sequence
func ParseInvoiceNumber(number string) (int, int64, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != "INV" || len(parts[2]) < invoiceSequenceWidth {
		return 0, 0, &ValidationError{Field: "invoice_number", Reason: fmt.Sprintf("%q is not of the form INV-<year>-<seq>", number)}
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return 0, 0, &ValidationError{Field: "invoice_number", Reason: fmt.Sprintf("%q has an invalid year", number)}
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 1 {
		return 0, 0, &ValidationError{Field: "invoice_number", Reason: fmt.Sprintf("%q has an invalid sequence", number)}
	}
	return year, seq, nil
}
