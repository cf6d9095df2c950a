package routes

import (
	"go-shop-api/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterEstimateRoutes registers the kiosk routes that answer an estimate item by item.
func RegisterEstimateRoutes(
	rg *gin.RouterGroup,
	estimateHandler handlers.EstimateHandlerInterface,
	authMiddleware gin.HandlerFunc,
) {
	items := rg.Group("/invoice-items")
	items.Use(authMiddleware)
	{
		items.POST("/:id/estimate/approve", estimateHandler.ApproveItem)
		items.POST("/:id/estimate/decline", estimateHandler.DeclineItem)
	}
}
