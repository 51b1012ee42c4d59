package models

import "fmt"

// ErrorCode identifies a domain error variant
type ErrorCode string

const (
	ErrCodeCartNotActive     ErrorCode = "CART_NOT_ACTIVE"
	ErrCodeEmptyCart         ErrorCode = "EMPTY_CART"
	ErrCodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// DomainError is the closed set of business-rule violations this service can
// report. All variants are recoverable and carry enough context to render an
// actionable message without a second lookup. Infrastructure failures (lock
// timeouts, connection loss) are never wrapped into a DomainError; they
// propagate as-is so callers can tell the two apart.
type DomainError struct {
	Code ErrorCode

	// ProductName is set for InsufficientStock
	ProductName string

	// Status and Event are set for InvalidTransition
	Status OrderStatus
	Event  string
}

func (e *DomainError) Error() string {
	switch e.Code {
	case ErrCodeCartNotActive:
		return "cart is not active"
	case ErrCodeEmptyCart:
		return "cart is empty"
	case ErrCodeInsufficientStock:
		return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
	case ErrCodeInvalidTransition:
		return fmt.Sprintf("invalid transition: cannot %s order in status %s", e.Event, e.Status)
	default:
		return string(e.Code)
	}
}

// ErrCartNotActive reports a checkout attempt on a non-active cart.
func ErrCartNotActive() *DomainError {
	return &DomainError{Code: ErrCodeCartNotActive}
}

// ErrEmptyCart reports a checkout attempt on a cart with no lines.
func ErrEmptyCart() *DomainError {
	return &DomainError{Code: ErrCodeEmptyCart}
}

// ErrInsufficientStock reports that a line's required quantity exceeds the
// available stock, at check time or at commit time.
func ErrInsufficientStock(productName string) *DomainError {
	return &DomainError{Code: ErrCodeInsufficientStock, ProductName: productName}
}

// ErrInvalidTransition reports a lifecycle event that is not legal from the
// current order status.
func ErrInvalidTransition(status OrderStatus, event string) *DomainError {
	return &DomainError{Code: ErrCodeInvalidTransition, Status: status, Event: event}
}
