package handler

import (
	appfulfillment "github.com/erp/fulfillment/internal/application/fulfillment"
	"github.com/shopspring/decimal"
)

// SubmitOrderRequest is the body of POST /orders/submit
type SubmitOrderRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

// AdvanceWarehouseTaskRequest is the body of POST /warehouse/advance
type AdvanceWarehouseTaskRequest struct {
	OrderItemID    string           `json:"order_item_id" binding:"required,uuid"`
	NewStatus      string           `json:"new_status" binding:"required"`
	QuantityPicked *decimal.Decimal `json:"quantity_picked"`
	LocationNote   *string          `json:"location_note"`
}

// CreateShipmentRequest is the body of POST /shipments
type CreateShipmentRequest struct {
	OrderID        string           `json:"order_id" binding:"required,uuid"`
	Carrier        string           `json:"carrier" binding:"required"`
	TrackingNumber string           `json:"tracking_number"`
	ParcelsCount   int              `json:"parcels_count"`
	TotalWeight    *decimal.Decimal `json:"total_weight"`
}

// FinalizeInvoiceRequest is the body of POST /invoices/finalize
type FinalizeInvoiceRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

// RecordPaymentRequest is the body of POST /payments.
// Amount accepts a JSON string or number.
type RecordPaymentRequest struct {
	InvoiceID string          `json:"invoice_id" binding:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"required"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// Success bodies flatten the command result next to "success": true

// SubmitOrderResponse is returned by POST /orders/submit
type SubmitOrderResponse struct {
	Success bool `json:"success"`
	*appfulfillment.SubmitOrderResult
}

// AdvanceWarehouseTaskResponse is returned by POST /warehouse/advance
type AdvanceWarehouseTaskResponse struct {
	Success bool `json:"success"`
	*appfulfillment.AdvanceWarehouseTaskResult
}

// CreateShipmentResponse is returned by POST /shipments
type CreateShipmentResponse struct {
	Success bool `json:"success"`
	*appfulfillment.CreateShipmentResult
}

// FinalizeInvoiceResponse is returned by POST /invoices/finalize
type FinalizeInvoiceResponse struct {
	Success bool `json:"success"`
	*appfulfillment.FinalizeInvoiceResult
}

// RecordPaymentResponse is returned by POST /payments
type RecordPaymentResponse struct {
	Success bool `json:"success"`
	*appfulfillment.RecordPaymentResult
}

// AuditHistoryResponse is returned by GET /orders/:id/audit
type AuditHistoryResponse struct {
	Success bool                            `json:"success"`
	OrderID string                          `json:"order_id"`
	Entries []appfulfillment.AuditEntryView `json:"entries"`
}
