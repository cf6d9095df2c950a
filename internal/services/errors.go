package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Define common service errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict") // e.g., stale version, duplicate key
	ErrValidation        = errors.New("validation failed")
	ErrInvalidState      = errors.New("invalid state for operation")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ConflictError is returned when a versioned write keeps losing to other writers.
type ConflictError struct {
	Table           string
	ID              uuid.UUID
	ExpectedVersion int
	CurrentVersion  int
	Attempts        int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s %s: expected version %d, current version %d (after %d attempts)",
		e.Table, e.ID, e.ExpectedVersion, e.CurrentVersion, e.Attempts)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError reports a shortage. AtCommit is set when the database refused the
// insert, which overrides whatever the pre-check saw.
type InsufficientStockError struct {
	ItemID    uuid.UUID
	ItemName  string
	Available int
	Requested int
	AtCommit  bool
}

func (e *InsufficientStockError) Error() string {
	name := e.ItemName
	if name == "" {
		name = e.ItemID.String()
	}
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StoreError wraps a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
