package fulfillment

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line of an order. Prices and quantities are frozen once the
// order leaves draft; only warehouse progress changes afterwards.
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductName     string
	SKU             string
	UnitPrice       decimal.Decimal
	Quantity        decimal.Decimal
	Currency        valueobject.Currency
	DiscountPercent *decimal.Decimal
	FXRate          *decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var hundred = decimal.NewFromInt(100)

// NewOrderItem creates an order line
func NewOrderItem(orderID uuid.UUID, productName, sku string, unitPrice, quantity decimal.Decimal, currency valueobject.Currency) (*OrderItem, error) {
	if orderID == uuid.Nil {
		return nil, &ValidationError{Field: "order_id", Reason: "is required"}
	}
	if productName == "" {
		return nil, &ValidationError{Field: "product_name", Reason: "is required"}
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if unitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Reason: "cannot be negative"}
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductName: productName,
		SKU:         sku,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NetAmount returns unit_price * quantity, less the discount, converted by fx_rate
func (i *OrderItem) NetAmount() decimal.Decimal {
	amount := i.UnitPrice.Mul(i.Quantity)
	if i.DiscountPercent != nil {
		amount = amount.Mul(hundred.Sub(*i.DiscountPercent)).Div(hundred)
	}
	if i.FXRate != nil {
		amount = amount.Mul(*i.FXRate)
	}
	return amount
}
