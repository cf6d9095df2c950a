package routes

import (
	"go-shop-api/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterJobPartRoutes registers the routes that move stock onto and off jobs.
func RegisterJobPartRoutes(
	rg *gin.RouterGroup,
	jobPartHandler handlers.JobPartHandlerInterface,
	authMiddleware gin.HandlerFunc,
) {
	jobs := rg.Group("/jobs")
	jobs.Use(authMiddleware)
	{
		jobs.POST("/:id/parts", jobPartHandler.AttachInventory)
		jobs.GET("/:id/parts", jobPartHandler.ListJobParts)
	}

	jobParts := rg.Group("/job-parts")
	jobParts.Use(authMiddleware)
	{
		jobParts.DELETE("/:id", jobPartHandler.DetachJobPart)
	}
}
