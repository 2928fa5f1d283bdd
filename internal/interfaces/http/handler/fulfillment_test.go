package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appfulfillment "github.com/erp/fulfillment/internal/application/fulfillment"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockLifecycle struct{ mock.Mock }

func (m *mockLifecycle) SubmitOrder(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.SubmitOrderCommand) (*appfulfillment.SubmitOrderResult, error) {
	args := m.Called(ctx, actor, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfulfillment.SubmitOrderResult), args.Error(1)
}

func (m *mockLifecycle) CreateShipment(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.CreateShipmentCommand) (*appfulfillment.CreateShipmentResult, error) {
	args := m.Called(ctx, actor, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfulfillment.CreateShipmentResult), args.Error(1)
}

func (m *mockLifecycle) FinalizeInvoice(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.FinalizeInvoiceCommand) (*appfulfillment.FinalizeInvoiceResult, error) {
	args := m.Called(ctx, actor, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfulfillment.FinalizeInvoiceResult), args.Error(1)
}

type mockWarehouse struct{ mock.Mock }

func (m *mockWarehouse) AdvanceWarehouseTask(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.AdvanceWarehouseTaskCommand) (*appfulfillment.AdvanceWarehouseTaskResult, error) {
	args := m.Called(ctx, actor, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfulfillment.AdvanceWarehouseTaskResult), args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) RecordPayment(ctx context.Context, actor fulfillment.AuthContext, cmd appfulfillment.RecordPaymentCommand) (*appfulfillment.RecordPaymentResult, error) {
	args := m.Called(ctx, actor, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfulfillment.RecordPaymentResult), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) ListByOrder(ctx context.Context, actor fulfillment.AuthContext, orderID uuid.UUID) ([]appfulfillment.AuditEntryView, error) {
	args := m.Called(ctx, actor, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appfulfillment.AuditEntryView), args.Error(1)
}

type testDeps struct {
	lifecycle *mockLifecycle
	warehouse *mockWarehouse
	payments  *mockPayments
	audit     *mockAudit
	actor     fulfillment.AuthContext
	engine    *gin.Engine
}

func newTestDeps(role fulfillment.Role) *testDeps {
	d := &testDeps{
		lifecycle: new(mockLifecycle),
		warehouse: new(mockWarehouse),
		payments:  new(mockPayments),
		audit:     new(mockAudit),
		actor:     fulfillment.AuthContext{UserID: uuid.New(), CompanyID: uuid.New(), Role: role},
	}
	h := NewFulfillmentHandler(d.lifecycle, d.warehouse, d.payments, d.audit)

	d.engine = gin.New()
	d.engine.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.AuthActorKey, d.actor)
		c.Next()
	})
	d.engine.POST("/orders/submit", h.SubmitOrder)
	d.engine.POST("/warehouse/advance", h.AdvanceWarehouseTask)
	d.engine.POST("/shipments", h.CreateShipment)
	d.engine.POST("/invoices/finalize", h.FinalizeInvoice)
	d.engine.POST("/payments", h.RecordPayment)
	d.engine.GET("/orders/:id/audit", h.ListAudit)
	return d
}

func (d *testDeps) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	d.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFulfillmentHandler_SubmitOrder(t *testing.T) {
	t.Run("flattens the result next to success", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleClient)
		orderID := uuid.New()
		d.lifecycle.On("SubmitOrder", mock.Anything, d.actor, appfulfillment.SubmitOrderCommand{OrderID: orderID}).
			Return(&appfulfillment.SubmitOrderResult{OrderID: orderID, OrderNumber: "ORD-2026-000042"}, nil)

		w := d.post("/orders/submit", `{"order_id":"`+orderID.String()+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, orderID.String(), body["order_id"])
		assert.Equal(t, "ORD-2026-000042", body["order_number"])
		d.lifecycle.AssertExpectations(t)
	})

	t.Run("rejects a malformed order id", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleClient)

		w := d.post("/orders/submit", `{"order_id":"not-a-uuid"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeBody(t, w)["code"])
		d.lifecycle.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleClient)

		w := d.post("/orders/submit", `{"order_id":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeBody(t, w)["code"])
	})

	t.Run("maps an empty order to 422", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleClient)
		orderID := uuid.New()
		d.lifecycle.On("SubmitOrder", mock.Anything, d.actor, mock.Anything).
			Return(nil, &fulfillment.EmptyOrderError{OrderID: orderID.String()})

		w := d.post("/orders/submit", `{"order_id":"`+orderID.String()+`"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, dto.ErrCodeEmptyOrder, body["code"])
		assert.Contains(t, body["error"], "has no items")
		assert.NotEmpty(t, body["request_id"])
	})

	t.Run("maps a foreign order to 403", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleClient)
		d.lifecycle.On("SubmitOrder", mock.Anything, d.actor, mock.Anything).
			Return(nil, &fulfillment.PermissionError{Reason: "order belongs to another company"})

		w := d.post("/orders/submit", `{"order_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeBody(t, w)["code"])
	})

	t.Run("hides store failures behind 500", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleClient)
		d.lifecycle.On("SubmitOrder", mock.Anything, d.actor, mock.Anything).
			Return(nil, errors.New("connection reset by peer"))

		w := d.post("/orders/submit", `{"order_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, dto.ErrCodeInternal, body["code"])
		assert.NotContains(t, body["error"], "connection reset")
	})
}

func TestFulfillmentHandler_AdvanceWarehouseTask(t *testing.T) {
	t.Run("passes optional fields and a null order status", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleWarehouse)
		itemID := uuid.New()
		taskID := uuid.New()
		d.warehouse.On("AdvanceWarehouseTask", mock.Anything, d.actor, mock.MatchedBy(func(cmd appfulfillment.AdvanceWarehouseTaskCommand) bool {
			return cmd.OrderItemID == itemID &&
				cmd.NewStatus == fulfillment.TaskStatusPicked &&
				cmd.QuantityPicked != nil && cmd.QuantityPicked.Equal(decimal.NewFromInt(3)) &&
				cmd.LocationNote != nil && *cmd.LocationNote == "A-12"
		})).Return(&appfulfillment.AdvanceWarehouseTaskResult{TaskID: taskID}, nil)

		w := d.post("/warehouse/advance",
			`{"order_item_id":"`+itemID.String()+`","new_status":"picked","quantity_picked":"3","location_note":"A-12"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, taskID.String(), body["task_id"])
		assert.Nil(t, body["order_status"])
		d.warehouse.AssertExpectations(t)
	})

	t.Run("returns the new order status when it changed", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleWarehouse)
		status := fulfillment.OrderStatusPacked
		d.warehouse.On("AdvanceWarehouseTask", mock.Anything, d.actor, mock.Anything).
			Return(&appfulfillment.AdvanceWarehouseTaskResult{TaskID: uuid.New(), OrderStatus: &status}, nil)

		w := d.post("/warehouse/advance", `{"order_item_id":"`+uuid.NewString()+`","new_status":"packed"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "packed", decodeBody(t, w)["order_status"])
	})

	t.Run("requires new_status", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleWarehouse)

		w := d.post("/warehouse/advance", `{"order_item_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeBody(t, w)["code"])
	})
}

func TestFulfillmentHandler_CreateShipment(t *testing.T) {
	d := newTestDeps(fulfillment.RoleWarehouse)
	orderID := uuid.New()
	shipmentID := uuid.New()
	d.lifecycle.On("CreateShipment", mock.Anything, d.actor, mock.MatchedBy(func(cmd appfulfillment.CreateShipmentCommand) bool {
		return cmd.OrderID == orderID && cmd.Carrier == "DHL" && cmd.ParcelsCount == 2 &&
			cmd.TotalWeight != nil && cmd.TotalWeight.Equal(decimal.RequireFromString("12.5"))
	})).Return(&appfulfillment.CreateShipmentResult{ShipmentID: shipmentID}, nil)

	w := d.post("/shipments",
		`{"order_id":"`+orderID.String()+`","carrier":"DHL","parcels_count":2,"total_weight":12.5}`)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, shipmentID.String(), body["shipment_id"])
}

func TestFulfillmentHandler_FinalizeInvoice(t *testing.T) {
	t.Run("returns the invoice number", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleAdmin)
		orderID := uuid.New()
		invoiceID := uuid.New()
		d.lifecycle.On("FinalizeInvoice", mock.Anything, d.actor, appfulfillment.FinalizeInvoiceCommand{OrderID: orderID}).
			Return(&appfulfillment.FinalizeInvoiceResult{InvoiceID: invoiceID, InvoiceNumber: "INV-2026-00001"}, nil)

		w := d.post("/invoices/finalize", `{"order_id":"`+orderID.String()+`"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, invoiceID.String(), body["invoice_id"])
		assert.Equal(t, "INV-2026-00001", body["invoice_number"])
	})

	t.Run("maps a second finalize to invalid state", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleAdmin)
		d.lifecycle.On("FinalizeInvoice", mock.Anything, d.actor, mock.Anything).
			Return(nil, &fulfillment.InvalidStateError{
				Operation: "finalize invoice for",
				Current:   fulfillment.OrderStatusInvoiced,
				Expected:  []fulfillment.OrderStatus{fulfillment.OrderStatusPacked},
			})

		w := d.post("/invoices/finalize", `{"order_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, decodeBody(t, w)["code"])
	})
}

func TestFulfillmentHandler_RecordPayment(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"amount as string", `"150.25"`},
		{"amount as number", `150.25`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(fulfillment.RoleStaffAdmin)
			invoiceID := uuid.New()
			paymentID := uuid.New()
			d.payments.On("RecordPayment", mock.Anything, d.actor, mock.MatchedBy(func(cmd appfulfillment.RecordPaymentCommand) bool {
				return cmd.InvoiceID == invoiceID &&
					cmd.Amount.Equal(decimal.RequireFromString("150.25")) &&
					cmd.Method == fulfillment.PaymentMethodBankTransfer &&
					cmd.Reference == "SEPA-1"
			})).Return(&appfulfillment.RecordPaymentResult{
				PaymentID: paymentID,
				FullyPaid: true,
				TotalPaid: decimal.RequireFromString("150.25"),
			}, nil)

			w := d.post("/payments",
				`{"invoice_id":"`+invoiceID.String()+`","amount":`+tt.amount+`,"method":"bank_transfer","reference":"SEPA-1"}`)

			require.Equal(t, http.StatusCreated, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, paymentID.String(), body["payment_id"])
			assert.Equal(t, true, body["fully_paid"])
			assert.Equal(t, "150.25", body["total_paid"])
			d.payments.AssertExpectations(t)
		})
	}

	t.Run("maps overpayment to 422", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleAdmin)
		d.payments.On("RecordPayment", mock.Anything, d.actor, mock.Anything).
			Return(nil, &fulfillment.OverpaymentError{
				InvoiceID:  "inv",
				GrandTotal: decimal.NewFromInt(100),
				NewTotal:   decimal.NewFromInt(120),
			})

		w := d.post("/payments", `{"invoice_id":"`+uuid.NewString()+`","amount":"120","method":"cash"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeOverpayment, decodeBody(t, w)["code"])
	})

	t.Run("maps a validation error to 400", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleAdmin)
		d.payments.On("RecordPayment", mock.Anything, d.actor, mock.Anything).
			Return(nil, &fulfillment.ValidationError{Field: "amount", Reason: "must be positive"})

		w := d.post("/payments", `{"invoice_id":"`+uuid.NewString()+`","amount":"0","method":"cash"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeBody(t, w)["code"])
	})
}

func TestFulfillmentHandler_ListAudit(t *testing.T) {
	t.Run("returns entries in order", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleAdmin)
		orderID := uuid.New()
		to := fulfillment.OrderStatusSubmitted
		entries := []appfulfillment.AuditEntryView{{
			ID:        uuid.New(),
			OrderID:   orderID,
			ActorID:   d.actor.UserID,
			Action:    fulfillment.AuditActionOrderSubmitted,
			ToStatus:  &to,
			Payload:   map[string]any{"order_number": "ORD-2026-000001"},
			CreatedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		}}
		d.audit.On("ListByOrder", mock.Anything, d.actor, orderID).Return(entries, nil)

		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String()+"/audit", nil)
		w := httptest.NewRecorder()
		d.engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body AuditHistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, orderID.String(), body.OrderID)
		require.Len(t, body.Entries, 1)
		assert.Equal(t, fulfillment.AuditActionOrderSubmitted, body.Entries[0].Action)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		d := newTestDeps(fulfillment.RoleAdmin)

		req := httptest.NewRequest(http.MethodGet, "/orders/abc/audit", nil)
		w := httptest.NewRecorder()
		d.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFulfillmentHandler_RequiresActor(t *testing.T) {
	h := NewFulfillmentHandler(new(mockLifecycle), new(mockWarehouse), new(mockPayments), new(mockAudit))
	engine := gin.New()
	engine.POST("/orders/submit", h.SubmitOrder)

	req := httptest.NewRequest(http.MethodPost, "/orders/submit", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
