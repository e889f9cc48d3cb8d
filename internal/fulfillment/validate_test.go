package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhadeepds/microservices-project/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		order   *models.Order
		wantMsg string
	}{
		{
			name:    "nil order",
			order:   nil,
			wantMsg: "Order cannot be null",
		},
		{
			name:    "missing customer",
			order:   &models.Order{ProductQuantities: map[int64]int{1: 1}},
			wantMsg: "Customer ID is required",
		},
		{
			name:    "missing customer wins over empty lines",
			order:   &models.Order{},
			wantMsg: "Customer ID is required",
		},
		{
			name:    "empty lines",
			order:   order(1, map[int64]int{}),
			wantMsg: "Order must contain at least one product",
		},
		{
			name:    "nil lines",
			order:   order(1, nil),
			wantMsg: "Order must contain at least one product",
		},
		{
			name:    "zero quantity",
			order:   order(1, map[int64]int{1: 2, 7: 0}),
			wantMsg: "Quantity for product ID 7 must be positive",
		},
		{
			name:    "lowest offending product id is reported",
			order:   order(1, map[int64]int{9: -1, 3: -5, 1: 2}),
			wantMsg: "Quantity for product ID 3 must be positive",
		},
		{
			name:    "zero product id",
			order:   order(1, map[int64]int{0: 2, 4: 1}),
			wantMsg: "Invalid product ID 0",
		},
		{
			name:    "negative product id reported before zero",
			order:   order(1, map[int64]int{0: 2, -3: 1}),
			wantMsg: "Invalid product ID -3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.order)
			require.Error(t, err)
			assert.True(t, IsBadRequest(err))

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.wantMsg, e.Message)
		})
	}
}

func TestValidate_AcceptsValidOrder(t *testing.T) {
	assert.NoError(t, Validate(order(1, map[int64]int{1: 2, 2: 3})))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(notFound("Order not found with id %d", 3)))
	assert.Equal(t, KindUnknown, KindOf(assert.AnError))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, "reconciliation_failure", KindReconciliation.String())
}
