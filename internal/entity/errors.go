package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned when checkout is attempted with no cart items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPermission is returned when the caller may not perform the operation.
	ErrPermission = errors.New("permission denied")
	// ErrUnauthenticated is returned when an operation requires a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrProductInUse is returned when deleting a product that is referenced by order history.
	ErrProductInUse = errors.New("product is referenced by existing orders")
	// ErrConflict is returned when a write clashes with a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports bad or missing input. No state is changed when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports that a requested quantity exceeds the product's stock.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}
