package routes

import (
	"go-shop-api/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterInvoiceRoutes registers all routes related to invoices.
func RegisterInvoiceRoutes(
	rg *gin.RouterGroup,
	invoiceHandler handlers.InvoiceHandlerInterface,
	estimateHandler handlers.EstimateHandlerInterface,
	authMiddleware gin.HandlerFunc,
) {
	invoices := rg.Group("/invoices")
	invoices.Use(authMiddleware)
	{
		invoices.GET("/:id", invoiceHandler.GetInvoiceByID)
		invoices.PATCH("/:id/status", invoiceHandler.UpdateInvoiceStatus)
		invoices.POST("/:id/estimate/send", estimateHandler.SendEstimate)
	}
}
