// internal/transport/dto/invoice_dto.go
package dto

import (
	"time"

	"go-shop-api/internal/models"
	"go-shop-api/internal/pricing"

	"github.com/google/uuid"
)

// GetInvoiceRequest defines the structure for getting an invoice with its totals.
type GetInvoiceRequest struct {
	ID             uuid.UUID `json:"-" form:"-" validate:"required"`
	ExcludePending bool      `json:"-" form:"exclude_pending"`
	ShopID         uuid.UUID `json:"-" form:"-"`
}

// UpdateInvoiceStatusRequest changes the invoice status. ExpectedVersion is the version the
// client last read; zero means "whatever is stored now".
type UpdateInvoiceStatusRequest struct {
	ID              uuid.UUID            `json:"-" validate:"required"`
	Status          models.InvoiceStatus `json:"status" validate:"required,oneof=open paid"`
	ExpectedVersion int                  `json:"expected_version" validate:"gte=0"`
	ShopID          uuid.UUID            `json:"-"`
}

// LineItemResponse is one invoice row as returned to clients.
type LineItemResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Position           int        `json:"position"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	Quantity           float64    `json:"quantity"`
	UnitPrice          float64    `json:"unit_price"`
	PricingType        string     `json:"pricing_type,omitempty"`
	LinkedItemID       *uuid.UUID `json:"linked_item_id,omitempty"`
	GroupName          *string    `json:"group_name,omitempty"`
	LaborHours         *float64   `json:"labor_hours,omitempty"`
	LaborRateName      *string    `json:"labor_rate_name,omitempty"`
	InventoryItemID    *uuid.UUID `json:"inventory_item_id,omitempty"`
	EstimateStatus     string     `json:"estimate_status"`
	EstimateSentAt     *time.Time `json:"estimate_sent_at,omitempty"`
	EstimateApprovedAt *time.Time `json:"estimate_approved_at,omitempty"`
	Amount             string     `json:"amount"`
	Version            int        `json:"version"`
}

// InvoiceResponse defines the standard invoice data returned to the client.
type InvoiceResponse struct {
	ID           uuid.UUID             `json:"id"`
	JobID        uuid.UUID             `json:"job_id"`
	Status       string                `json:"status"`
	TaxRate      float64               `json:"tax_rate"`
	DiscountRate float64               `json:"discount_rate"`
	Version      int                   `json:"version"`
	Items        []LineItemResponse    `json:"items"`
	Totals       pricing.DisplayTotals `json:"totals"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ConflictResponse is returned with 409 when a versioned write lost the race.
type ConflictResponse struct {
	Error          string `json:"error"`
	CurrentVersion int    `json:"current_version"`
}

func NewLineItemResponse(li *models.LineItem, amount string) LineItemResponse {
	return LineItemResponse{
		ID:                 li.ID,
		Position:           li.Position,
		Name:               li.Name,
		Type:               string(li.Type),
		Quantity:           li.Quantity,
		UnitPrice:          li.UnitPrice,
		PricingType:        string(li.PricingType),
		LinkedItemID:       li.LinkedItemID,
		GroupName:          li.GroupName,
		LaborHours:         li.LaborHours,
		LaborRateName:      li.LaborRateName,
		InventoryItemID:    li.InventoryItemID,
		EstimateStatus:     string(li.Status()),
		EstimateSentAt:     li.EstimateSentAt,
		EstimateApprovedAt: li.EstimateApprovedAt,
		Amount:             amount,
		Version:            li.Version,
	}
}

// NewInvoiceResponse renders the invoice with per-item amounts and display totals.
func NewInvoiceResponse(inv *models.Invoice, totals pricing.Totals) InvoiceResponse {
	amounts := pricing.ItemAmounts(inv.Items)
	items := make([]LineItemResponse, len(inv.Items))
	for i := range inv.Items {
		items[i] = NewLineItemResponse(&inv.Items[i], amounts[i].StringFixed(2))
	}
	return InvoiceResponse{
		ID:           inv.ID,
		JobID:        inv.JobID,
		Status:       string(inv.Status),
		TaxRate:      inv.TaxRate,
		DiscountRate: inv.DiscountRate,
		Version:      inv.Version,
		Items:        items,
		Totals:       totals.Display(),
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}
