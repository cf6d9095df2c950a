package handlers

import (
	"net/http"

	"go-shop-api/internal/pricing"
	"go-shop-api/internal/services"
	"go-shop-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// InvoiceHandler holds dependencies for invoice operations.
type InvoiceHandler struct {
	service   services.InvoiceService
	validator *validator.Validate
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(service services.InvoiceService, validate *validator.Validate) *InvoiceHandler {
	return &InvoiceHandler{service: service, validator: validate}
}

// GetInvoiceByID godoc
// @Summary      Get an invoice with its totals
// @Description  Retrieves the invoice, its ordered line items and the derived totals. Pending estimate items count toward the totals unless exclude_pending is set.
// @Tags         invoices
// @Produce      json
// @Param        id              path   string  true   "Invoice ID" Format(uuid)
// @Param        exclude_pending query  bool    false  "Leave items awaiting approval out of the totals"
// @Success      200 {object}  dto.InvoiceResponse "Successfully retrieved invoice"
// @Failure      400 {object}  map[string]string "Invalid ID format"
// @Failure      401 {object}  map[string]string "Unauthorized"
// @Failure      404 {object}  map[string]string "Invoice Not Found"
// @Failure      500 {object}  map[string]string "Internal Server Error"
// @Router       /invoices/{id} [get]
// @Security     BearerAuth
func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	shopID, ok := shopFromContext(c, "GetInvoiceByID")
	if !ok {
		return
	}
	invoiceID, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	var req dto.GetInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	req.ID = invoiceID
	req.ShopID = shopID

	res, err := h.service.GetInvoice(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "GetInvoiceByID", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInvoiceResponse(res.Invoice, res.Totals))
}

// UpdateInvoiceStatus godoc
// @Summary      Update the status of an invoice
// @Description  Moves an open invoice to paid. expected_version is the version the client last read; a stale version is retried against the stored one, and 409 is returned with current_version when retries run out.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id     path      string                          true  "Invoice ID" Format(uuid)
// @Param        status body      dto.UpdateInvoiceStatusRequest  true  "New status"
// @Success      200 {object}  dto.InvoiceResponse "Status updated"
// @Failure      400 {object}  map[string]string "Invalid input"
// @Failure      401 {object}  map[string]string "Unauthorized"
// @Failure      404 {object}  map[string]string "Invoice Not Found"
// @Failure      409 {object}  dto.ConflictResponse "Invalid transition or version conflict"
// @Failure      500 {object}  map[string]string "Internal Server Error"
// @Router       /invoices/{id}/status [patch]
// @Security     BearerAuth
func (h *InvoiceHandler) UpdateInvoiceStatus(c *gin.Context) {
	shopID, ok := shopFromContext(c, "UpdateInvoiceStatus")
	if !ok {
		return
	}
	invoiceID, ok := pathID(c, "id", "invoice")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	req.ID = invoiceID
	req.ShopID = shopID
	if !validate(c, h.validator, req) {
		return
	}

	inv, err := h.service.UpdateInvoiceStatus(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "UpdateInvoiceStatus", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInvoiceResponse(inv, pricing.Compute(inv)))
}
