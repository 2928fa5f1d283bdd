package persistence

import (
	"context"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserDirectory implements fulfillment.UserDirectory over the users table
type GormUserDirectory struct {
	db *gorm.DB
}

// NewGormUserDirectory creates a new GormUserDirectory
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// FindActiveIDsByRole returns the IDs of active users holding role
func (d *GormUserDirectory) FindActiveIDsByRole(ctx context.Context, role fulfillment.Role) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := d.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("role = ? AND active = ?", role, true).
		Order("email ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s users: %w", role, err)
	}
	return ids, nil
}

var _ fulfillment.UserDirectory = (*GormUserDirectory)(nil)
