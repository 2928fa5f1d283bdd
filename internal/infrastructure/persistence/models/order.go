package models

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel maps the orders table
type OrderModel struct {
	CompanyAggregateModel
	Number       *string                 `gorm:"type:varchar(32);uniqueIndex"`
	Status       fulfillment.OrderStatus `gorm:"type:varchar(32);not null;index"`
	Currency     string                  `gorm:"type:char(3);not null"`
	SubmittedAt  *time.Time
	ConfirmedAt  *time.Time
	InvoicedAt   *time.Time
	PackedAt     *time.Time
	DispatchedAt *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to an order
func (m *OrderModel) ToDomain() *fulfillment.Order {
	return &fulfillment.Order{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Number:               m.Number,
		Status:               m.Status,
		Currency:             valueobject.Currency(m.Currency),
		SubmittedAt:          m.SubmittedAt,
		ConfirmedAt:          m.ConfirmedAt,
		InvoicedAt:           m.InvoicedAt,
		PackedAt:             m.PackedAt,
		DispatchedAt:         m.DispatchedAt,
	}
}

// OrderModelFromDomain builds the model for an order
func OrderModelFromDomain(o *fulfillment.Order) *OrderModel {
	m := &OrderModel{
		Number:       o.Number,
		Status:       o.Status,
		Currency:     string(o.Currency),
		SubmittedAt:  o.SubmittedAt,
		ConfirmedAt:  o.ConfirmedAt,
		InvoicedAt:   o.InvoicedAt,
		PackedAt:     o.PackedAt,
		DispatchedAt: o.DispatchedAt,
	}
	m.FromDomainCompanyAggregateRoot(o.CompanyAggregateRoot)
	return m
}

// OrderItemModel maps the order_items table
type OrderItemModel struct {
	BaseModel
	OrderID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductName     string           `gorm:"type:varchar(255);not null"`
	SKU             string           `gorm:"column:sku;type:varchar(64)"`
	UnitPrice       decimal.Decimal  `gorm:"type:numeric(18,4);not null"`
	Quantity        decimal.Decimal  `gorm:"type:numeric(18,4);not null"`
	Currency        string           `gorm:"type:char(3);not null"`
	DiscountPercent *decimal.Decimal `gorm:"type:numeric(7,4)"`
	FXRate          *decimal.Decimal `gorm:"column:fx_rate;type:numeric(18,8)"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to an order item
func (m *OrderItemModel) ToDomain() fulfillment.OrderItem {
	return fulfillment.OrderItem{
		ID:              m.ID,
		OrderID:         m.OrderID,
		ProductName:     m.ProductName,
		SKU:             m.SKU,
		UnitPrice:       m.UnitPrice,
		Quantity:        m.Quantity,
		Currency:        valueobject.Currency(m.Currency),
		DiscountPercent: m.DiscountPercent,
		FXRate:          m.FXRate,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// OrderItemModelFromDomain builds the model for an order item
func OrderItemModelFromDomain(i *fulfillment.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		BaseModel:       BaseModel{ID: i.ID, CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt},
		OrderID:         i.OrderID,
		ProductName:     i.ProductName,
		SKU:             i.SKU,
		UnitPrice:       i.UnitPrice,
		Quantity:        i.Quantity,
		Currency:        string(i.Currency),
		DiscountPercent: i.DiscountPercent,
		FXRate:          i.FXRate,
	}
}

// OrderTotalsModel maps the order_totals table
type OrderTotalsModel struct {
	OrderID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemsNet     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	VATAmount    decimal.Decimal `gorm:"column:vat_amount;type:numeric(18,4);not null"`
	ItemsGross   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ShippingCost decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	GrandTotal   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Currency     string          `gorm:"type:char(3);not null"`
	ComputedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderTotalsModel) TableName() string {
	return "order_totals"
}

// ToDomain converts the model to order totals
func (m *OrderTotalsModel) ToDomain() *fulfillment.OrderTotals {
	return &fulfillment.OrderTotals{
		OrderID:      m.OrderID,
		ItemsNet:     m.ItemsNet,
		VATAmount:    m.VATAmount,
		ItemsGross:   m.ItemsGross,
		ShippingCost: m.ShippingCost,
		GrandTotal:   m.GrandTotal,
		Currency:     valueobject.Currency(m.Currency),
		ComputedAt:   m.ComputedAt,
	}
}

// OrderTotalsModelFromDomain builds the model for order totals
func OrderTotalsModelFromDomain(t *fulfillment.OrderTotals) *OrderTotalsModel {
	return &OrderTotalsModel{
		OrderID:      t.OrderID,
		ItemsNet:     t.ItemsNet,
		VATAmount:    t.VATAmount,
		ItemsGross:   t.ItemsGross,
		ShippingCost: t.ShippingCost,
		GrandTotal:   t.GrandTotal,
		Currency:     string(t.Currency),
		ComputedAt:   t.ComputedAt,
	}
}
