package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements fulfillment.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an order and locks its row with SELECT ... FOR UPDATE
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormOrderRepository) find(db *gorm.DB, id uuid.UUID) (*fulfillment.Order, error) {
	var m models.OrderModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return m.ToDomain(), nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	if err := r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Save writes the mutable columns of an order. The stored version must be
// lower than the order's, otherwise another writer got there first.
func (r *GormOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	m := models.OrderModelFromDomain(order)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version < ?", order.ID, order.Version).
		Updates(map[string]any{
			"number":        m.Number,
			"status":        m.Status,
			"submitted_at":  m.SubmittedAt,
			"confirmed_at":  m.ConfirmedAt,
			"invoiced_at":   m.InvoicedAt,
			"packed_at":     m.PackedAt,
			"dispatched_at": m.DispatchedAt,
			"updated_at":    m.UpdatedAt,
			"version":       m.Version,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "The order has been modified by another transaction")
	}
	return nil
}

var _ fulfillment.OrderRepository = (*GormOrderRepository)(nil)

// GormOrderItemRepository implements fulfillment.OrderItemRepository using GORM
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewGormOrderItemRepository creates a new GormOrderItemRepository
func NewGormOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// FindByID finds an order item by its ID
func (r *GormOrderItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.OrderItem, error) {
	var m models.OrderItemModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order item %s: %w", id, err)
	}
	item := m.ToDomain()
	return &item, nil
}

// FindByOrder returns the items of an order in creation order
func (r *GormOrderItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.OrderItem, error) {
	var rows []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load items of order %s: %w", orderID, err)
	}
	items := make([]fulfillment.OrderItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// CountByOrder counts the items of an order
func (r *GormOrderItemRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItemModel{}).
		Where("order_id = ?", orderID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count items of order %s: %w", orderID, err)
	}
	return n, nil
}

// Create inserts order items
func (r *GormOrderItemRepository) Create(ctx context.Context, items ...*fulfillment.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.OrderItemModel, len(items))
	for i, item := range items {
		rows[i] = models.OrderItemModelFromDomain(item)
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

var _ fulfillment.OrderItemRepository = (*GormOrderItemRepository)(nil)

// GormOrderTotalsRepository implements fulfillment.OrderTotalsRepository using GORM
type GormOrderTotalsRepository struct {
	db *gorm.DB
}

// NewGormOrderTotalsRepository creates a new GormOrderTotalsRepository
func NewGormOrderTotalsRepository(db *gorm.DB) *GormOrderTotalsRepository {
	return &GormOrderTotalsRepository{db: db}
}

// FindByOrder returns the totals row of an order
func (r *GormOrderTotalsRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*fulfillment.OrderTotals, error) {
	var m models.OrderTotalsModel
	if err := r.db.WithContext(ctx).First(&m, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load totals of order %s: %w", orderID, err)
	}
	return m.ToDomain(), nil
}

// Upsert writes the totals of an order, replacing any previous computation
func (r *GormOrderTotalsRepository) Upsert(ctx context.Context, totals *fulfillment.OrderTotals) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(models.OrderTotalsModelFromDomain(totals)).Error
	if err != nil {
		return fmt.Errorf("failed to store totals of order %s: %w", totals.OrderID, err)
	}
	return nil
}

var _ fulfillment.OrderTotalsRepository = (*GormOrderTotalsRepository)(nil)
