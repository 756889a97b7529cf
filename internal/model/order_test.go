package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to processing", OrderStatusPending, OrderStatusProcessing, true},
		{"pending to cancelled without payment attempt", OrderStatusPending, OrderStatusCancelled, false},
		{"pending to completed skips processing", OrderStatusPending, OrderStatusCompleted, false},
		{"processing to completed", OrderStatusProcessing, OrderStatusCompleted, true},
		{"processing to cancelled", OrderStatusProcessing, OrderStatusCancelled, true},
		{"processing back to pending", OrderStatusProcessing, OrderStatusPending, false},
		{"completed is terminal", OrderStatusCompleted, OrderStatusProcessing, false},
		{"completed to cancelled", OrderStatusCompleted, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPending, false},
		{"self transition rejected", OrderStatusPending, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestToOrderStatus(t *testing.T) {
	status, err := ToOrderStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusProcessing, status)

	_, err = ToOrderStatus("shipped")
	require.Error(t, err)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrCodeValidation, domainErr.Code)
}
