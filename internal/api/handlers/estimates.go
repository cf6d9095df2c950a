package handlers

import (
	"net/http"

	"go-shop-api/internal/models"
	"go-shop-api/internal/pricing"
	"go-shop-api/internal/services"
	"go-shop-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// EstimateHandler serves the estimate flow: the shop sends, the customer kiosk approves or declines.
type EstimateHandler struct {
	service   services.EstimateService
	validator *validator.Validate
}

func NewEstimateHandler(service services.EstimateService, validate *validator.Validate) *EstimateHandler {
	return &EstimateHandler{service: service, validator: validate}
}

// SendEstimate godoc
// @Summary      Send the estimate of an invoice
// @Description  Moves every eligible item that is not yet in the approval flow to pending. Sending again only picks up new items.
// @Tags         estimates
// @Produce      json
// @Param        id  path      string  true  "Invoice ID" Format(uuid)
// @Success      200 {object}  dto.SendEstimateResponse
// @Failure      404 {object}  map[string]string "Invoice Not Found"
// @Failure      422 {object}  map[string]string "Invoice is not open"
// @Router       /invoices/{id}/estimate/send [post]
// @Security     BearerAuth
func (h *EstimateHandler) SendEstimate(c *gin.Context) {
	shopID, ok := shopFromContext(c, "SendEstimate")
	if !ok {
		return
	}
	invoiceID, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	res, err := h.service.SendEstimate(c.Request.Context(), &dto.SendEstimateRequest{InvoiceID: invoiceID, ShopID: shopID})
	if err != nil {
		respondError(c, "SendEstimate", err)
		return
	}
	c.JSON(http.StatusOK, dto.SendEstimateResponse{
		InvoiceID: res.InvoiceID,
		Sent:      res.Sent,
		Pending:   res.Summary.Pending,
		Approved:  res.Summary.Approved,
	})
}

// ApproveItem godoc
// @Summary      Approve an estimate item
// @Tags         estimates
// @Produce      json
// @Param        id  path      string  true  "Invoice item ID" Format(uuid)
// @Success      200 {object}  dto.LineItemResponse
// @Failure      404 {object}  map[string]string "Item Not Found"
// @Failure      409 {object}  map[string]string "Item is not pending"
// @Router       /invoice-items/{id}/estimate/approve [post]
// @Security     BearerAuth
func (h *EstimateHandler) ApproveItem(c *gin.Context) {
	shopID, ok := shopFromContext(c, "ApproveItem")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id", "invoice item")
	if !ok {
		return
	}

	li, err := h.service.ApproveEstimateItem(c.Request.Context(), &dto.EstimateItemRequest{ItemID: itemID, ShopID: shopID})
	if err != nil {
		respondError(c, "ApproveItem", err)
		return
	}
	amount := pricing.ItemAmounts([]models.LineItem{*li})[0]
	c.JSON(http.StatusOK, dto.NewLineItemResponse(li, amount.StringFixed(2)))
}

// DeclineItem godoc
// @Summary      Decline an estimate item
// @Description  Removes the pending item from the invoice.
// @Tags         estimates
// @Param        id  path      string  true  "Invoice item ID" Format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object}  map[string]string "Item Not Found"
// @Failure      409 {object}  map[string]string "Item is not pending, or it changed meanwhile"
// @Router       /invoice-items/{id}/estimate/decline [post]
// @Security     BearerAuth
func (h *EstimateHandler) DeclineItem(c *gin.Context) {
	shopID, ok := shopFromContext(c, "DeclineItem")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id", "invoice item")
	if !ok {
		return
	}

	if err := h.service.DeclineEstimateItem(c.Request.Context(), &dto.EstimateItemRequest{ItemID: itemID, ShopID: shopID}); err != nil {
		respondError(c, "DeclineItem", err)
		return
	}
	c.Status(http.StatusNoContent)
}
