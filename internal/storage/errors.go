package storage

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("resource not found")
var ErrConflict = errors.New("resource conflict (e.g., duplicate key)")

// ErrVersionMismatch means a conditional write matched zero rows because the stored version moved on.
var ErrVersionMismatch = errors.New("record version mismatch")

// ErrInsufficientStock is raised by the job_parts trigger when a part cannot be deducted at commit time.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrUnknownTable is returned for tables that are not open to generic versioned writes.
var ErrUnknownTable = errors.New("table not writable")

// StockRejection carries the counts reported by the stock trigger when it refuses a job part.
type StockRejection struct {
	Available int
	Requested int
}

func (e *StockRejection) Error() string {
	return fmt.Sprintf("insufficient stock at commit: available=%d requested=%d", e.Available, e.Requested)
}

func (e *StockRejection) Is(target error) bool {
	return target == ErrInsufficientStock
}
