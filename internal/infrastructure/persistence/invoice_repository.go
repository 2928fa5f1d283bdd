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

// GormInvoiceRepository implements fulfillment.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForUpdate locks and returns an invoice
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.Invoice, error) {
	var m models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load invoice %s: %w", id, err)
	}
	return m.ToDomain(), nil
}

// FindByOrder returns the invoices of an order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*fulfillment.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("issued_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoices of order %s: %w", orderID, err)
	}
	out := make([]*fulfillment.Invoice, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// CountByNumberPrefix counts invoices whose number starts with prefix
func (r *GormInvoiceRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count invoices with prefix %s: %w", prefix, err)
	}
	return n, nil
}

// Create inserts an invoice inside a savepoint so a number collision rolls
// back only the insert and leaves the command transaction usable
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *fulfillment.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(models.InvoiceModelFromDomain(invoice)).Error
	})
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return fulfillment.ErrDuplicateInvoiceNumber
	}
	return fmt.Errorf("failed to create invoice %s: %w", invoice.InvoiceNumber, err)
}

var _ fulfillment.InvoiceRepository = (*GormInvoiceRepository)(nil)
