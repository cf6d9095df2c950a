package services

import (
	"context"
	"fmt"

	"go-shop-api/internal/estimate"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/models"
	"go-shop-api/internal/pricing"
	"go-shop-api/internal/storage"
	"go-shop-api/internal/transport/dto"

	"github.com/sirupsen/logrus"
)

type invoiceService struct {
	invoiceRepo storage.InvoiceRepository
	mutator     *RecordMutator
	log         *logrus.Logger
}

func NewInvoiceService(invoiceRepo storage.InvoiceRepository, mutator *RecordMutator) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		mutator:     mutator,
		log:         logger.Get(),
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, req *dto.GetInvoiceRequest) (*InvoiceWithTotals, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, req.ShopID, req.ID)
	if err != nil {
		return nil, MapRepoError(err, "fetching invoice")
	}
	totals := pricing.ComputeWithOptions(inv, pricing.Options{ExcludePendingEstimates: req.ExcludePending})
	return &InvoiceWithTotals{
		Invoice:  inv,
		Totals:   totals,
		Estimate: estimate.Summarize(inv),
	}, nil
}

func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, req *dto.UpdateInvoiceStatusRequest) (*models.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, req.ShopID, req.ID)
	if err != nil {
		return nil, MapRepoError(err, "fetching invoice for status update")
	}

	if !isValidInvoiceStatusTransition(inv.Status, req.Status) {
		s.log.WithFields(logrus.Fields{"invoice_id": inv.ID, "from": inv.Status, "to": req.Status}).Info("UpdateInvoiceStatus: invalid transition")
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, req.Status)
	}

	expected := req.ExpectedVersion
	if expected == 0 {
		expected = inv.Version
	}
	from := inv.Status
	_, err = s.mutator.Update(ctx, storage.TableInvoices, inv.ID, expected, map[string]interface{}{
		"status": string(req.Status),
	}, WithPrecondition(func(rec *models.Record) error {
		if current := recordInvoiceStatus(rec); !isValidInvoiceStatusTransition(current, req.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, req.Status)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	updated, err := s.invoiceRepo.GetByID(ctx, req.ShopID, req.ID)
	if err != nil {
		return nil, MapRepoError(err, "re-reading invoice")
	}
	s.log.WithFields(logrus.Fields{"invoice_id": updated.ID, "from": from, "to": updated.Status, "version": updated.Version}).Info("invoice status updated")
	return updated, nil
}
