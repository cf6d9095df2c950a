package services

import (
	"context"

	"go-shop-api/internal/dedup"
	"go-shop-api/internal/estimate"
	"go-shop-api/internal/models"
	"go-shop-api/internal/pricing"
	"go-shop-api/internal/transport/dto"

	"github.com/google/uuid"
)

// AttachResult is the outcome of attaching a part. A suppressed duplicate is a success;
// Link is then the row created by the original call when it is known.
type AttachResult struct {
	Link       *models.JobPartLink
	Suppressed bool
	Layer      dedup.Layer
}

// InvoiceWithTotals is an invoice plus its derived amounts.
type InvoiceWithTotals struct {
	Invoice  *models.Invoice
	Totals   pricing.Totals
	Estimate estimate.Summary
}

// SendEstimateResult lists the items moved to pending by one send.
type SendEstimateResult struct {
	InvoiceID uuid.UUID
	Sent      []uuid.UUID
	Summary   estimate.Summary
}

// InventoryService attaches stocked parts to jobs and removes them again.
type InventoryService interface {
	AttachInventoryToJob(ctx context.Context, req *dto.AttachInventoryRequest) (*AttachResult, error)
	DetachJobPart(ctx context.Context, req *dto.DetachJobPartRequest) error
	ListJobParts(ctx context.Context, req *dto.ListJobPartsRequest) ([]models.JobPartLink, error)
}

// InvoiceService defines the interface for invoice-related business logic.
type InvoiceService interface {
	GetInvoice(ctx context.Context, req *dto.GetInvoiceRequest) (*InvoiceWithTotals, error)
	UpdateInvoiceStatus(ctx context.Context, req *dto.UpdateInvoiceStatusRequest) (*models.Invoice, error)
}

// EstimateService drives customer approval of invoice items.
type EstimateService interface {
	SendEstimate(ctx context.Context, req *dto.SendEstimateRequest) (*SendEstimateResult, error)
	ApproveEstimateItem(ctx context.Context, req *dto.EstimateItemRequest) (*models.LineItem, error)
	DeclineEstimateItem(ctx context.Context, req *dto.EstimateItemRequest) error
}
