package fulfillment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment records the hand-over of an order to a carrier
type Shipment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Carrier        string
	TrackingNumber string
	ParcelsCount   int
	TotalWeight    *decimal.Decimal
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

// NewShipment creates a shipment. parcelsCount defaults to 1 when zero.
func NewShipment(orderID uuid.UUID, carrier, trackingNumber string, parcelsCount int, totalWeight *decimal.Decimal, createdBy uuid.UUID, at time.Time) (*Shipment, error) {
	carrier = strings.TrimSpace(carrier)
	if carrier == "" {
		return nil, &ValidationError{Field: "carrier", Reason: "is required"}
	}
	if parcelsCount == 0 {
		parcelsCount = 1
	}
	if parcelsCount < 0 {
		return nil, &ValidationError{Field: "parcels_count", Reason: "must be at least 1"}
	}
	if totalWeight != nil && !totalWeight.IsPositive() {
		return nil, &ValidationError{Field: "total_weight", Reason: "must be positive"}
	}
	return &Shipment{
		ID:             uuid.New(),
		OrderID:        orderID,
		Carrier:        carrier,
		TrackingNumber: strings.TrimSpace(trackingNumber),
		ParcelsCount:   parcelsCount,
		TotalWeight:    totalWeight,
		CreatedBy:      createdBy,
		CreatedAt:      at,
	}, nil
}
