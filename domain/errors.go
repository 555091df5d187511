package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by id or exact key finds nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation would break a reference or uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects malformed input before anything is mutated.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Shortfall is the part of a depletion request that non-expired stock could not cover.
type Shortfall struct {
	ProductID int64 `json:"product_id"`
	Requested int64 `json:"requested"`
	Available int64 `json:"available"`
	Missing   int64 `json:"missing"`
}

// InsufficientStockError reports every product a sale could not be fulfilled for.
type InsufficientStockError struct {
	Shortfalls []Shortfall `json:"shortfalls"`
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("product %d short by %d", s.ProductID, s.Missing))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// PersistenceError wraps a failure of the underlying storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
