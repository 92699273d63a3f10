package model

import (
	"fmt"
	"math"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Standard error codes for API responses.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodePromoInvalid      = "PROMO_INVALID"
	ErrCodeStorageBusy       = "STORAGE_BUSY"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError carries a machine-readable code alongside the message so
// handlers can map business failures to HTTP statuses without string
// matching.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a formatted message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// NewProductNotFound names the product that could not be resolved.
func NewProductNotFound(productID string) *DomainError {
	return NewDomainError(ErrCodeNotFound, fmt.Sprintf("Product not found: %s", productID))
}

// NewInsufficientStock names the offending product and color variant.
func NewInsufficientStock(productName, color string) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock, fmt.Sprintf("Out of stock for %s (%s)", productName, color))
}

// NewPromoInvalid carries the first failed validity check.
func NewPromoInvalid(reason string) *DomainError {
	return NewDomainError(ErrCodePromoInvalid, reason)
}

// Common domain errors.
var (
	ErrStorageBusy     = NewDomainError(ErrCodeStorageBusy, "Database busy, please try again")
	ErrProductNotFound = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrPromoNotFound   = NewPromoInvalid("Invalid promo code")
)

// Round2 rounds an amount to currency precision (2 decimal places). All
// order totals and discounts pass through here exactly once per boundary.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
