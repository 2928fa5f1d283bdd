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

// GormWarehouseTaskRepository implements fulfillment.WarehouseTaskRepository using GORM
type GormWarehouseTaskRepository struct {
	db *gorm.DB
}

// NewGormWarehouseTaskRepository creates a new GormWarehouseTaskRepository
func NewGormWarehouseTaskRepository(db *gorm.DB) *GormWarehouseTaskRepository {
	return &GormWarehouseTaskRepository{db: db}
}

// FindByOrderItemForUpdate locks and returns the task of an order item
func (r *GormWarehouseTaskRepository) FindByOrderItemForUpdate(ctx context.Context, orderItemID uuid.UUID) (*fulfillment.WarehouseTask, error) {
	var m models.WarehouseTaskModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "order_item_id = ?", orderItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load task of item %s: %w", orderItemID, err)
	}
	return m.ToDomain(), nil
}

// FindByOrder returns the tasks of every item of an order
func (r *GormWarehouseTaskRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.WarehouseTask, error) {
	var rows []models.WarehouseTaskModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN order_items ON order_items.id = warehouse_tasks.order_item_id").
		Where("order_items.order_id = ?", orderID).
		Order("warehouse_tasks.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks of order %s: %w", orderID, err)
	}
	tasks := make([]fulfillment.WarehouseTask, len(rows))
	for i := range rows {
		tasks[i] = *rows[i].ToDomain()
	}
	return tasks, nil
}

// Save inserts the task or updates its progress columns
func (r *GormWarehouseTaskRepository) Save(ctx context.Context, task *fulfillment.WarehouseTask) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "quantity_picked", "location_note", "picked_at", "picked_by", "updated_by", "updated_at",
			}),
		}).
		Create(models.WarehouseTaskModelFromDomain(task)).Error
	if err != nil {
		return fmt.Errorf("failed to save warehouse task %s: %w", task.ID, err)
	}
	return nil
}

var _ fulfillment.WarehouseTaskRepository = (*GormWarehouseTaskRepository)(nil)
