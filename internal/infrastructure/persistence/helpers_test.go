package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared/valueobject"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.OrderTotalsModel{},
		&models.WarehouseTaskModel{},
		&models.ShipmentModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
		&models.AuditLogModel{},
		&models.NotificationModel{},
		&models.UserModel{},
		&models.OutboxEntryModel{},
	))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

// seedOrder stores a draft order with the given number of one-unit items
func seedOrder(t *testing.T, db *gorm.DB, items int) (*fulfillment.Order, []*fulfillment.OrderItem) {
	t.Helper()
	ctx := context.Background()

	order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), valueobject.EUR)
	require.NoError(t, err)
	require.NoError(t, NewGormOrderRepository(db).Create(ctx, order))

	var created []*fulfillment.OrderItem
	for i := 0; i < items; i++ {
		item, err := fulfillment.NewOrderItem(order.ID, "Widget", "W-1", decimal.NewFromInt(10), decimal.NewFromInt(2), valueobject.EUR)
		require.NoError(t, err)
		item.CreatedAt = item.CreatedAt.Add(time.Duration(i) * time.Millisecond)
		created = append(created, item)
	}
	require.NoError(t, NewGormOrderItemRepository(db).Create(ctx, created...))
	return order, created
}

func seedInvoice(t *testing.T, db *gorm.DB, orderID uuid.UUID, number string, grandTotal string) *fulfillment.Invoice {
	t.Helper()
	totals := &fulfillment.OrderTotals{
		OrderID:    orderID,
		ItemsNet:   decimal.RequireFromString(grandTotal),
		GrandTotal: decimal.RequireFromString(grandTotal),
		Currency:   valueobject.EUR,
	}
	invoice, err := fulfillment.NewFinalInvoice(totals, number, uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, NewGormInvoiceRepository(db).Create(context.Background(), invoice))
	return invoice
}
