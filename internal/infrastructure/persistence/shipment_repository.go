package persistence

import (
	"context"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipmentRepository implements fulfillment.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Create inserts a shipment
func (r *GormShipmentRepository) Create(ctx context.Context, shipment *fulfillment.Shipment) error {
	if err := r.db.WithContext(ctx).Create(models.ShipmentModelFromDomain(shipment)).Error; err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	return nil
}

// FindByOrder returns the shipments of an order, oldest first
func (r *GormShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	var rows []models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load shipments of order %s: %w", orderID, err)
	}
	out := make([]fulfillment.Shipment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ fulfillment.ShipmentRepository = (*GormShipmentRepository)(nil)
