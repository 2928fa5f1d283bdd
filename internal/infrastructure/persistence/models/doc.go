// Package models contains the GORM persistence models of the fulfillment tables.
// Domain types carry no ORM tags; repositories convert with the ToDomain and
// FromDomain helpers defined next to each model.
//
// - base.go: shared columns (BaseModel, CompanyAggregateModel)
// - order.go: orders, order_items, order_totals
// - fulfillment.go: warehouse_tasks, shipments, invoices, payments
// - audit.go: audit_logs, notifications, users
// - outbox.go: outbox_events
package models
