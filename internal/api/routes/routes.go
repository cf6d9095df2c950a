package routes

import (
	"go-shop-api/internal/api/handlers"
	"go-shop-api/internal/api/middleware"
	"go-shop-api/internal/app"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the API routes by calling resource-specific registration functions
func RegisterRoutes(router *gin.Engine, app *app.Application) {
	apiV1 := router.Group("/api/v1")

	jobPartHandler := handlers.NewJobPartHandler(app.InventoryService, app.Validator)
	invoiceHandler := handlers.NewInvoiceHandler(app.InvoiceService, app.Validator)
	estimateHandler := handlers.NewEstimateHandler(app.EstimateService, app.Validator)
	healthHandler := handlers.NewHealthHandler(app.HealthChecks)

	// --- Middleware ---
	authMiddleware := middleware.JWTAuthMiddleware(app.Config.JWT.Secret)

	// --- Register Resource Routes ---
	RegisterJobPartRoutes(apiV1, jobPartHandler, authMiddleware)
	RegisterInvoiceRoutes(apiV1, invoiceHandler, estimateHandler, authMiddleware)
	RegisterEstimateRoutes(apiV1, estimateHandler, authMiddleware)

	// --- Health Check ---
	router.GET("/health", healthHandler.HealthCheck)
}
