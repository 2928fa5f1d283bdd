package handler

import (
	"context"
	"net/http"

	appfulfillment "github.com/erp/fulfillment/internal/application/fulfillment"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderLifecycle runs the order level commands
type OrderLifecycle interface {
	SubmitOrder(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.SubmitOrderCommand) (*appfulfillment.SubmitOrderResult, error)
	CreateShipment(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.CreateShipmentCommand) (*appfulfillment.CreateShipmentResult, error)
	FinalizeInvoice(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.FinalizeInvoiceCommand) (*appfulfillment.FinalizeInvoiceResult, error)
}

// WarehouseTasks advances warehouse tasks
type WarehouseTasks interface {
	AdvanceWarehouseTask(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.AdvanceWarehouseTaskCommand) (*appfulfillment.AdvanceWarehouseTaskResult, error)
}

// PaymentRecorder records invoice payments
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.RecordPaymentCommand) (*appfulfillment.RecordPaymentResult, error)
}

// AuditReader reads an order's audit history
type AuditReader interface {
	ListByOrder(ctx context.Context, actor fulfillment.AuthContext, orderID uuid.UUID) ([]appfulfillment.AuditEntryView, error)
}

// FulfillmentHandler exposes the fulfillment commands over HTTP
type FulfillmentHandler struct {
	BaseHandler
	lifecycle OrderLifecycle
	warehouse WarehouseTasks
	payments  PaymentRecorder
	audit     AuditReader
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(lifecycle OrderLifecycle, warehouse WarehouseTasks, payments PaymentRecorder, audit AuditReader) *FulfillmentHandler {
	return &FulfillmentHandler{
		lifecycle: lifecycle,
		warehouse: warehouse,
		payments:  payments,
		audit:     audit,
	}
}

// SubmitOrder godoc
// @Summary      Submit a draft order
// @Description  Assigns the order number and moves a draft order with items to submitted
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SubmitOrderRequest true "Order to submit"
// @Success      200 {object} SubmitOrderResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/orders/submit [post]
func (h *FulfillmentHandler) SubmitOrder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.lifecycle.SubmitOrder(c.Request.Context(), actor, appfulfillment.SubmitOrderCommand{
		OrderID: uuid.MustParse(req.OrderID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, SubmitOrderResponse{Success: true, SubmitOrderResult: result})
}

// AdvanceWarehouseTask godoc
// @Summary      Advance a warehouse task
// @Description  Sets the task status of one order item and re-derives the order status from all its tasks
// @Tags         warehouse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AdvanceWarehouseTaskRequest true "Task change"
// @Success      200 {object} AdvanceWarehouseTaskResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/warehouse/advance [post]
func (h *FulfillmentHandler) AdvanceWarehouseTask(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req AdvanceWarehouseTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.warehouse.AdvanceWarehouseTask(c.Request.Context(), actor, appfulfillment.AdvanceWarehouseTaskCommand{
		OrderItemID:    uuid.MustParse(req.OrderItemID),
		NewStatus:      fulfillment.TaskStatus(req.NewStatus),
		QuantityPicked: req.QuantityPicked,
		LocationNote:   req.LocationNote,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, AdvanceWarehouseTaskResponse{Success: true, AdvanceWarehouseTaskResult: result})
}

// CreateShipment godoc
// @Summary      Dispatch an order
// @Description  Records the shipment of a packed or ready order and notifies its creator
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateShipmentRequest true "Shipment"
// @Success      201 {object} CreateShipmentResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/shipments [post]
func (h *FulfillmentHandler) CreateShipment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.lifecycle.CreateShipment(c.Request.Context(), actor, appfulfillment.CreateShipmentCommand{
		OrderID:        uuid.MustParse(req.OrderID),
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		ParcelsCount:   req.ParcelsCount,
		TotalWeight:    req.TotalWeight,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateShipmentResponse{Success: true, CreateShipmentResult: result})
}

// FinalizeInvoice godoc
// @Summary      Issue the final invoice
// @Description  Snapshots the order totals into a numbered final invoice and moves the order to invoiced
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body FinalizeInvoiceRequest true "Order to invoice"
// @Success      201 {object} FinalizeInvoiceResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/invoices/finalize [post]
func (h *FulfillmentHandler) FinalizeInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req FinalizeInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.lifecycle.FinalizeInvoice(c.Request.Context(), actor, appfulfillment.FinalizeInvoiceCommand{
		OrderID: uuid.MustParse(req.OrderID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, FinalizeInvoiceResponse{Success: true, FinalizeInvoiceResult: result})
}

// RecordPayment godoc
// @Summary      Record an invoice payment
// @Description  Adds a payment to an invoice; settling an invoiced order confirms it
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} RecordPaymentResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/payments [post]
func (h *FulfillmentHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), actor, appfulfillment.RecordPaymentCommand{
		InvoiceID: uuid.MustParse(req.InvoiceID),
		Amount:    req.Amount,
		Method:    fulfillment.PaymentMethod(req.Method),
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RecordPaymentResponse{Success: true, RecordPaymentResult: result})
}

// ListAudit godoc
// @Summary      Order audit history
// @Description  Lists the audit entries of an order, oldest first
// @Tags         fulfillment
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} AuditHistoryResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/orders/{id}/audit [get]
func (h *FulfillmentHandler) ListAudit(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	orderID := uuid.MustParse(req.ID)
	entries, err := h.audit.ListByOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuditHistoryResponse{Success: true, OrderID: orderID.String(), Entries: entries})
}
