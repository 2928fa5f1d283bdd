package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixtures seeds rows straight into the fulfillment schema, bypassing the
// domain so tests can start from any lifecycle state.
type Fixtures struct {
	t   *testing.T
	db  *gorm.DB
	now time.Time
}

// NewFixtures creates a seeder over db
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db, now: time.Now().UTC()}
}

// User inserts an active user and returns its id
func (f *Fixtures) User(companyID uuid.UUID, role string) uuid.UUID {
	f.t.Helper()
	id := uuid.New()
	f.exec(`INSERT INTO users (id, company_id, role, email, active) VALUES (?, ?, ?, ?, TRUE)`,
		id, companyID, role, fmt.Sprintf("%s-%s@example.test", role, id.String()[:8]))
	return id
}

// Order inserts an order in status. Orders past draft get a fixture number.
func (f *Fixtures) Order(companyID, createdBy uuid.UUID, status string) uuid.UUID {
	f.t.Helper()
	id := uuid.New()
	var number *string
	if status != "draft" {
		n := "FIX-" + id.String()[:8]
		number = &n
	}
	f.exec(`INSERT INTO orders (id, company_id, created_by, number, status, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'EUR', ?, ?)`,
		id, companyID, createdBy, number, status, f.now, f.now)
	return id
}

// Item inserts an order item and returns its id
func (f *Fixtures) Item(orderID uuid.UUID, name string, quantity, unitPrice string) uuid.UUID {
	f.t.Helper()
	id := uuid.New()
	f.exec(`INSERT INTO order_items (id, order_id, product_name, unit_price, quantity, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'EUR', ?, ?)`,
		id, orderID, name, decimal.RequireFromString(unitPrice), decimal.RequireFromString(quantity), f.now, f.now)
	return id
}

// Totals inserts the computed totals of an order. VAT is left at zero.
func (f *Fixtures) Totals(orderID uuid.UUID, grandTotal string) {
	f.t.Helper()
	total := decimal.RequireFromString(grandTotal)
	f.exec(`INSERT INTO order_totals (order_id, items_net, vat_amount, items_gross, shipping_cost, grand_total, currency, computed_at)
		VALUES (?, ?, 0, ?, 0, ?, 'EUR', ?)`,
		orderID, total, total, total, f.now)
}

// OrderStatus reads the current status of an order
func (f *Fixtures) OrderStatus(orderID uuid.UUID) string {
	f.t.Helper()
	var status string
	require.NoError(f.t, f.db.Raw(`SELECT status FROM orders WHERE id = ?`, orderID).Scan(&status).Error)
	return status
}

// Count returns the number of rows in table matching where
func (f *Fixtures) Count(table, where string, args ...any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Table(table).Where(where, args...).Count(&n).Error)
	return n
}

func (f *Fixtures) exec(sql string, args ...any) {
	f.t.Helper()
	require.NoError(f.t, f.db.Exec(sql, args...).Error)
}
