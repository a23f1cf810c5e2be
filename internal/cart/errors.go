package cart

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks by callers.
var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidState = errors.New("invalid cart state")
	ErrDuplicateKey = errors.New("duplicate product")
)

// NotFoundError is returned when an operation names a key that is not in the catalog.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %q not found in catalog", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidStateError is returned when a stepper operation targets a product
// that is not in the cart.
type InvalidStateError struct {
	Key string
	Op  Op
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %q: product is not selected", e.Op, e.Key)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
