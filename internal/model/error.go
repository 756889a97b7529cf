package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInvalidSignature  = "SIGNATURE_VERIFICATION_FAILED"
	ErrCodeProviderError     = "PROVIDER_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError carries a stable error kind alongside a human-readable message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity = NewDomainError(ErrCodeValidation, "Quantity must be greater than zero")
	ErrEmptyOrder      = NewDomainError(ErrCodeValidation, "Order must contain at least one item")
	// ErrOrderNotFound covers both unknown orders and orders owned by another
	// user, so a lookup never leaks existence.
	ErrOrderNotFound   = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrProductNotFound = NewDomainError(ErrCodeNotFound, "One or more products not found")
)

// NewConflictError reports an invalid status transition attempt.
func NewConflictError(from, to OrderStatus) *DomainError {
	return NewDomainError(ErrCodeConflict,
		fmt.Sprintf("Cannot transition order from %s to %s", from, to))
}

// InsufficientStockError names the offending product and the shortfall.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
