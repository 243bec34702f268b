package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateOrderRequestValidate(t *testing.T) {
	assert.NoError(t, CreateOrderRequest{ProductID: "p1", WarehouseID: "w1", Quantity: 1}.Validate())
	assert.ErrorIs(t, CreateOrderRequest{ProductID: "p1", WarehouseID: "w1"}.Validate(), ErrInvalidQuantity)
	assert.ErrorIs(t, CreateOrderRequest{ProductID: "p1", Quantity: 2}.Validate(), ErrMissingProduct)
}

func TestUpdateOrderRequestValidate(t *testing.T) {
	assert.NoError(t, UpdateOrderRequest{Status: StatusProcessing}.Validate())
	assert.ErrorIs(t, UpdateOrderRequest{Status: "Lost"}.Validate(), ErrInvalidStatus)
}

func TestFilter(t *testing.T) {
	orders := []Order{
		{OrderID: "o1", ProductID: "BOLT-1", Status: StatusPending},
		{OrderID: "o2", ProductID: "WIRE-9", Status: StatusCompleted},
		{OrderID: "o3", ProductID: "NUT-3", Status: StatusProcessing},
	}

	got := Filter(orders, "complete")
	require.Len(t, got, 1)
	assert.Equal(t, "o2", got[0].OrderID)

	got = Filter(orders, "bolt")
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].OrderID)

	assert.Len(t, Filter(orders, ""), 3)
}
