package models

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseTaskModel maps the warehouse_tasks table. One task per order item.
type WarehouseTaskModel struct {
	BaseModel
	OrderItemID    uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	Status         fulfillment.TaskStatus `gorm:"type:varchar(16);not null"`
	QuantityPicked decimal.Decimal        `gorm:"type:numeric(18,4);not null"`
	LocationNote   string                 `gorm:"type:varchar(500)"`
	PickedAt       *time.Time
	PickedBy       *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy      uuid.UUID  `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (WarehouseTaskModel) TableName() string {
	return "warehouse_tasks"
}

// ToDomain converts the model to a warehouse task
func (m *WarehouseTaskModel) ToDomain() *fulfillment.WarehouseTask {
	return &fulfillment.WarehouseTask{
		ID:             m.ID,
		OrderItemID:    m.OrderItemID,
		Status:         m.Status,
		QuantityPicked: m.QuantityPicked,
		LocationNote:   m.LocationNote,
		PickedAt:       m.PickedAt,
		PickedBy:       m.PickedBy,
		UpdatedBy:      m.UpdatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// WarehouseTaskModelFromDomain builds the model for a warehouse task
func WarehouseTaskModelFromDomain(t *fulfillment.WarehouseTask) *WarehouseTaskModel {
	return &WarehouseTaskModel{
		BaseModel:      BaseModel{ID: t.ID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt},
		OrderItemID:    t.OrderItemID,
		Status:         t.Status,
		QuantityPicked: t.QuantityPicked,
		LocationNote:   t.LocationNote,
		PickedAt:       t.PickedAt,
		PickedBy:       t.PickedBy,
		UpdatedBy:      t.UpdatedBy,
	}
}

// ShipmentModel maps the shipments table
type ShipmentModel struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	Carrier        string           `gorm:"type:varchar(100);not null"`
	TrackingNumber string           `gorm:"type:varchar(100)"`
	ParcelsCount   int              `gorm:"not null"`
	TotalWeight    *decimal.Decimal `gorm:"type:numeric(12,3)"`
	CreatedBy      uuid.UUID        `gorm:"type:uuid;not null"`
	CreatedAt      time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the model to a shipment
func (m *ShipmentModel) ToDomain() fulfillment.Shipment {
	return fulfillment.Shipment{
		ID:             m.ID,
		OrderID:        m.OrderID,
		Carrier:        m.Carrier,
		TrackingNumber: m.TrackingNumber,
		ParcelsCount:   m.ParcelsCount,
		TotalWeight:    m.TotalWeight,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// ShipmentModelFromDomain builds the model for a shipment
func ShipmentModelFromDomain(s *fulfillment.Shipment) *ShipmentModel {
	return &ShipmentModel{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		ParcelsCount:   s.ParcelsCount,
		TotalWeight:    s.TotalWeight,
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
	}
}

// InvoiceModel maps the invoices table. invoice_number is unique.
type InvoiceModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Type          fulfillment.InvoiceType `gorm:"type:varchar(16);not null"`
	InvoiceNumber string                  `gorm:"type:varchar(32);not null;uniqueIndex"`
	ItemsNet      decimal.Decimal         `gorm:"type:numeric(18,4);not null"`
	VATAmount     decimal.Decimal         `gorm:"column:vat_amount;type:numeric(18,4);not null"`
	ItemsGross    decimal.Decimal         `gorm:"type:numeric(18,4);not null"`
	ShippingCost  decimal.Decimal         `gorm:"type:numeric(18,4);not null"`
	GrandTotal    decimal.Decimal         `gorm:"type:numeric(18,4);not null"`
	Currency      string                  `gorm:"type:char(3);not null"`
	IssuedAt      time.Time               `gorm:"not null"`
	CreatedBy     uuid.UUID               `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to an invoice
func (m *InvoiceModel) ToDomain() *fulfillment.Invoice {
	return &fulfillment.Invoice{
		ID:            m.ID,
		OrderID:       m.OrderID,
		Type:          m.Type,
		InvoiceNumber: m.InvoiceNumber,
		ItemsNet:      m.ItemsNet,
		VATAmount:     m.VATAmount,
		ItemsGross:    m.ItemsGross,
		ShippingCost:  m.ShippingCost,
		GrandTotal:    m.GrandTotal,
		Currency:      valueobject.Currency(m.Currency),
		IssuedAt:      m.IssuedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// InvoiceModelFromDomain builds the model for an invoice
func InvoiceModelFromDomain(i *fulfillment.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:            i.ID,
		OrderID:       i.OrderID,
		Type:          i.Type,
		InvoiceNumber: i.InvoiceNumber,
		ItemsNet:      i.ItemsNet,
		VATAmount:     i.VATAmount,
		ItemsGross:    i.ItemsGross,
		ShippingCost:  i.ShippingCost,
		GrandTotal:    i.GrandTotal,
		Currency:      string(i.Currency),
		IssuedAt:      i.IssuedAt,
		CreatedBy:     i.CreatedBy,
	}
}

// PaymentModel maps the payments table. Rows are never updated.
type PaymentModel struct {
	ID         uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	InvoiceID  uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal           `gorm:"type:numeric(18,4);not null"`
	Method     fulfillment.PaymentMethod `gorm:"type:varchar(32);not null"`
	Reference  string                    `gorm:"type:varchar(100)"`
	Notes      string                    `gorm:"type:text"`
	RecordedBy uuid.UUID                 `gorm:"type:uuid;not null"`
	CreatedAt  time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a payment
func (m *PaymentModel) ToDomain() *fulfillment.Payment {
	return &fulfillment.Payment{
		ID:         m.ID,
		InvoiceID:  m.InvoiceID,
		Amount:     m.Amount,
		Method:     m.Method,
		Reference:  m.Reference,
		Notes:      m.Notes,
		RecordedBy: m.RecordedBy,
		CreatedAt:  m.CreatedAt,
	}
}

// PaymentModelFromDomain builds the model for a payment
func PaymentModelFromDomain(p *fulfillment.Payment) *PaymentModel {
	return &PaymentModel{
		ID:         p.ID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Method:     p.Method,
		Reference:  p.Reference,
		Notes:      p.Notes,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
	}
}
