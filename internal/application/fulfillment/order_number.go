package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
)

// OrderNumberPrefix starts every order number
const OrderNumberPrefix = "ORD"

// OrderNumberGenerator renders sequence values as ORD-<year>-<6-digit-seq>.
// Numbers drawn inside a transaction that later rolls back are not reused.
type OrderNumberGenerator struct {
	now func() time.Time
}

// NewOrderNumberGenerator creates a generator using the wall clock
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{now: time.Now}
}

// Next draws the next value from seq and formats it
func (g *OrderNumberGenerator) Next(ctx context.Context, seq fulfillment.OrderNumberSequence) (string, error) {
	n, err := seq.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to draw order number: %w", err)
	}
	if n < 1 {
		return "", fmt.Errorf("order number sequence returned %d", n)
	}
	return FormatOrderNumber(g.now().Year(), n), nil
}

// FormatOrderNumber renders ORD-<year>-<6-digit-seq>
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", OrderNumberPrefix, year, seq)
}
