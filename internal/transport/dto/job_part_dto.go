// internal/transport/dto/job_part_dto.go
package dto

import (
	"time"

	"go-shop-api/internal/models"

	"github.com/google/uuid"
)

// PartDetails are copied onto the job part so its line stays stable if the stock row changes.
type PartDetails struct {
	Name      string   `json:"name" validate:"omitempty,max=255"`
	UnitPrice float64  `json:"unit_price" validate:"gte=0"`
	CostPrice *float64 `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
}

// AttachInventoryRequest attaches a stocked part to a job.
// JobID comes from the URL path, ShopID from the token.
type AttachInventoryRequest struct {
	JobID    uuid.UUID         `json:"-"`
	ItemID   uuid.UUID         `json:"item_id" validate:"required"`
	Source   models.ItemSource `json:"source" validate:"required,oneof=inventory folder"`
	Quantity int               `json:"quantity" validate:"required,gt=0"`
	Details  PartDetails       `json:"details"`
	ShopID   uuid.UUID         `json:"-"`
}

// DetachJobPartRequest removes a job part; the stock trigger returns the quantity.
type DetachJobPartRequest struct {
	ID     uuid.UUID `json:"-" validate:"required"`
	ShopID uuid.UUID `json:"-"`
}

// ListJobPartsRequest lists the parts attached to a job.
type ListJobPartsRequest struct {
	JobID  uuid.UUID `json:"-" validate:"required"`
	ShopID uuid.UUID `json:"-"`
}

// JobPartResponse is a job part as returned to clients.
type JobPartResponse struct {
	ID              uuid.UUID  `json:"id"`
	JobID           uuid.UUID  `json:"job_id"`
	InventoryItemID *uuid.UUID `json:"inventory_item_id,omitempty"`
	FolderItemID    *uuid.UUID `json:"folder_item_id,omitempty"`
	Quantity        int        `json:"quantity"`
	Name            string     `json:"name"`
	UnitPrice       float64    `json:"unit_price"`
	CostPrice       *float64   `json:"cost_price,omitempty"`
	Deducted        bool       `json:"deducted"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AttachInventoryResponse reports whether the call created a part or was a duplicate.
type AttachInventoryResponse struct {
	Suppressed bool             `json:"suppressed"`
	Layer      string           `json:"layer,omitempty"`
	JobPart    *JobPartResponse `json:"job_part,omitempty"`
}

func NewJobPartResponse(l *models.JobPartLink) *JobPartResponse {
	if l == nil {
		return nil
	}
	return &JobPartResponse{
		ID:              l.ID,
		JobID:           l.JobID,
		InventoryItemID: l.InventoryItemID,
		FolderItemID:    l.FolderItemID,
		Quantity:        l.Quantity,
		Name:            l.Name,
		UnitPrice:       l.UnitPrice,
		CostPrice:       l.CostPrice,
		Deducted:        l.Deducted,
		CreatedAt:       l.CreatedAt,
	}
}
