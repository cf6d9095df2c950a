package services

import (
	"errors"
	"fmt"

	"go-shop-api/internal/estimate"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/storage"
)

// isValidInvoiceStatusTransition checks if moving from current to next status is allowed.
func isValidInvoiceStatusTransition(current, next models.InvoiceStatus) bool {
	switch current {
	case models.InvoiceStatusOpen:
		return next == models.InvoiceStatusPaid
	case models.InvoiceStatusPaid:
		return false // Cannot transition from paid
	default:
		return false
	}
}

// MapRepoError maps storage errors to service errors
func MapRepoError(err error, operation string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, operation)
	}
	if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrVersionMismatch) {
		return fmt.Errorf("%w: %s (%v)", ErrConflict, operation, err)
	}
	if errors.Is(err, storage.ErrUnknownTable) {
		return fmt.Errorf("%w: %s (%v)", ErrValidation, operation, err)
	}
	// Log other unexpected errors
	logger.LogError("services", "MapRepoError", operation, nil, err)
	return fmt.Errorf("internal error during %s: %w", operation, err)
}

// mapEstimateError translates state machine errors into service errors.
func mapEstimateError(err error) error {
	switch {
	case errors.Is(err, estimate.ErrItemNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, estimate.ErrInvalidTransition), errors.Is(err, estimate.ErrNotEligible):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return err
}

// recordEstimateStatus reads estimate_status out of a generic row; NULL counts as none.
func recordEstimateStatus(rec *models.Record) models.EstimateStatus {
	var status models.EstimateStatus
	if err := status.Scan(rec.Fields["estimate_status"]); err != nil {
		if s, ok := rec.Fields["estimate_status"].(models.EstimateStatus); ok {
			return s
		}
		return models.EstimateStatusNone
	}
	return status
}

func recordInvoiceStatus(rec *models.Record) models.InvoiceStatus {
	var status models.InvoiceStatus
	if err := status.Scan(rec.Fields["status"]); err != nil {
		if s, ok := rec.Fields["status"].(models.InvoiceStatus); ok {
			return s
		}
		return ""
	}
	return status
}
