package service

import (
	"testing"

	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatusLegalTransitions(t *testing.T) {
	cases := []struct {
		current models.OrderStatus
		event   OrderEvent
		next    models.OrderStatus
	}{
		{models.OrderStatusPending, EventPay, models.OrderStatusPaid},
		{models.OrderStatusPaid, EventComplete, models.OrderStatusCompleted},
		{models.OrderStatusPending, EventCancel, models.OrderStatusCancelled},
	}

	for _, tc := range cases {
		next, err := NextStatus(tc.current, tc.event)
		require.NoError(t, err, "%s + %s", tc.current, tc.event)
		assert.Equal(t, tc.next, next)
	}
}

func TestNextStatusRejectsEverythingElse(t *testing.T) {
	statuses := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusPaid,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	}
	events := []OrderEvent{EventPay, EventComplete, EventCancel}

	legal := map[models.OrderStatus]map[OrderEvent]bool{
		models.OrderStatusPending: {EventPay: true, EventCancel: true},
		models.OrderStatusPaid:    {EventComplete: true},
	}

	for _, status := range statuses {
		for _, event := range events {
			if legal[status][event] {
				continue
			}

			_, err := NextStatus(status, event)
			var derr *models.DomainError
			require.ErrorAs(t, err, &derr, "%s + %s should be rejected", status, event)
			assert.Equal(t, models.ErrCodeInvalidTransition, derr.Code)
			assert.Equal(t, status, derr.Status)
			assert.Equal(t, string(event), derr.Event)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, models.OrderStatusPending.IsTerminal())
	assert.False(t, models.OrderStatusPaid.IsTerminal())
	assert.True(t, models.OrderStatusCompleted.IsTerminal())
	assert.True(t, models.OrderStatusCancelled.IsTerminal())
}
