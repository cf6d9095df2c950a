package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go-shop-api/internal/api/middleware"
	"go-shop-api/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func FormatValidationErrors(err error) map[string]string {
	errorsMap := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorsMap["error"] = "Invalid validation error type"
		return errorsMap
	}
	for _, fieldError := range validationErrors {
		fieldName := fieldError.Field()
		errorsMap[fieldName] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", fieldName, fieldError.Tag())
		switch fieldError.Tag() {
		case "required":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' is required", fieldName)
		case "oneof":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be one of: %s", fieldName, fieldError.Param())
		case "gt":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be greater than %s", fieldName, fieldError.Param())
		case "gte":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be at least %s", fieldName, fieldError.Param())
		case "max":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be at most %s characters long", fieldName, fieldError.Param())
		}
	}
	return errorsMap
}

// validate runs struct validation and writes the 400 response itself when it fails.
func validate(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return false
	}
	return true
}

// pathID parses the :name path parameter as a UUID, answering 400 when it is not one.
func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s ID format", label)})
		return uuid.Nil, false
	}
	return id, true
}

// shopFromContext reads the caller's shop set by the auth middleware.
func shopFromContext(c *gin.Context, op string) (uuid.UUID, bool) {
	shopID, err := middleware.GetShopIDFromContext(c)
	if err != nil {
		logger.Get().WithError(err).Infof("%s: no shop in context", op)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return shopID, true
}
