package service

import "checkout-service/internal/models"

// OrderEvent is a requested lifecycle event
type OrderEvent string

const (
	EventPay      OrderEvent = "pay"
	EventComplete OrderEvent = "complete"
	EventCancel   OrderEvent = "cancel"
)

// transitions is the full set of legal order lifecycle transitions.
// PENDING is the initial status; COMPLETED and CANCELLED are terminal.
var transitions = map[models.OrderStatus]map[OrderEvent]models.OrderStatus{
	models.OrderStatusPending: {
		EventPay:    models.OrderStatusPaid,
		EventCancel: models.OrderStatusCancelled,
	},
	models.OrderStatusPaid: {
		EventComplete: models.OrderStatusCompleted,
	},
}

// NextStatus maps (current status, event) to the next status, or rejects the
// pair with InvalidTransition. It is a pure decision function: idempotent
// replays (e.g. paying an already-paid order) are short-circuited by the
// caller before reaching it, because (PAID, pay) is not itself legal.
func NextStatus(current models.OrderStatus, event OrderEvent) (models.OrderStatus, error) {
	if next, ok := transitions[current][event]; ok {
		return next, nil
	}
	return "", models.ErrInvalidTransition(current, string(event))
}
