package handlers

import (
	"errors"
	"net/http"

	"go-shop-api/internal/logger"
	"go-shop-api/internal/services"
	"go-shop-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Every handler funnels failures through here.
func respondError(c *gin.Context, op string, err error) {
	var (
		validationErr *services.ValidationError
		stockErr      *services.InsufficientStockError
		conflictErr   *services.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": map[string]string{validationErr.Field: validationErr.Message}})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"item_id":   stockErr.ItemID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
			"at_commit": stockErr.AtCommit,
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, dto.ConflictResponse{Error: "Record was modified by someone else", CurrentVersion: conflictErr.CurrentVersion})
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.LogError("handlers", op, "unhandled service error", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
