// internal/transport/dto/estimate_dto.go
package dto

import "github.com/google/uuid"

// SendEstimateRequest moves every eligible item of the invoice to pending.
type SendEstimateRequest struct {
	InvoiceID uuid.UUID `json:"-" validate:"required"`
	ShopID    uuid.UUID `json:"-"`
}

// EstimateItemRequest approves or declines one invoice item. Both come from the kiosk.
type EstimateItemRequest struct {
	ItemID uuid.UUID `json:"-" validate:"required"`
	ShopID uuid.UUID `json:"-"`
}

// SendEstimateResponse lists the items that were moved to pending by this call.
type SendEstimateResponse struct {
	InvoiceID uuid.UUID   `json:"invoice_id"`
	Sent      []uuid.UUID `json:"sent"`
	Pending   int         `json:"pending"`
	Approved  int         `json:"approved"`
}
