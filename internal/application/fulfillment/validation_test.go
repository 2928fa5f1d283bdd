package fulfillment

import (
	"strings"
	"testing"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name   string
		cmd    any
		field  string
		reason string
	}{
		{
			name:   "missing order id",
			cmd:    SubmitOrderCommand{},
			field:  "order_id",
			reason: "is required",
		},
		{
			name:   "carrier too long",
			cmd:    CreateShipmentCommand{OrderID: uuid.New(), Carrier: strings.Repeat("x", 101)},
			field:  "carrier",
			reason: "must be at most 100 characters",
		},
		{
			name:   "negative parcels",
			cmd:    CreateShipmentCommand{OrderID: uuid.New(), Carrier: "UPS", ParcelsCount: -1},
			field:  "parcels_count",
			reason: "must be at least 0",
		},
		{
			name:   "bad task status",
			cmd:    AdvanceWarehouseTaskCommand{OrderItemID: uuid.New(), NewStatus: "lost"},
			field:  "new_status",
			reason: "must be one of pending, picking, picked, packed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCommand(tt.cmd)
			var valErr *fulfillment.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
			assert.Equal(t, tt.reason, valErr.Reason)
		})
	}

	assert.NoError(t, validateCommand(SubmitOrderCommand{OrderID: uuid.New()}))
}
