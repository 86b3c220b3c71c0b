package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrValidation           = errors.New("validation failed")
	ErrStorage              = errors.New("storage failure")
	ErrNotFound             = errors.New("not found")
)

// InsufficientStockError reports a movement that needs more available units than exist.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientQuantityError reports a bucket transfer larger than the source bucket.
type InsufficientQuantityError struct {
	Bucket    Bucket
	Have      int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity in %s: have %d, requested %d", e.Bucket, e.Have, e.Requested)
}

func (e *InsufficientQuantityError) Unwrap() error {
	return ErrInsufficientQuantity
}

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

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StorageError wraps a backend failure and keeps its message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrStorage and the backend error.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func storageErr(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}

	if errors.Is(err, ErrNotFound) {
		return err
	}

	return &StorageError{Op: op, Err: err}
}
