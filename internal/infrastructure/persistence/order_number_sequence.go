package persistence

import (
	"context"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"gorm.io/gorm"
)

// OrderNumberSequenceName is the PostgreSQL sequence behind order numbers
const OrderNumberSequenceName = "order_number_seq"

// GormOrderNumberSequence draws order numbers from a PostgreSQL sequence.
// nextval is not transactional, so a rolled back submission burns its value.
type GormOrderNumberSequence struct {
	db *gorm.DB
}

// NewGormOrderNumberSequence creates a new GormOrderNumberSequence
func NewGormOrderNumberSequence(db *gorm.DB) *GormOrderNumberSequence {
	return &GormOrderNumberSequence{db: db}
}

// Next returns the next sequence value
func (s *GormOrderNumberSequence) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).
		Raw("SELECT nextval(?)", OrderNumberSequenceName).
		Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to draw from %s: %w", OrderNumberSequenceName, err)
	}
	return n, nil
}

var _ fulfillment.OrderNumberSequence = (*GormOrderNumberSequence)(nil)
