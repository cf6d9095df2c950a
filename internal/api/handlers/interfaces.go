package handlers

import "github.com/gin-gonic/gin"

// JobPartHandlerInterface defines the methods needed by the job part routes.
type JobPartHandlerInterface interface {
	AttachInventory(c *gin.Context)
	ListJobParts(c *gin.Context)
	DetachJobPart(c *gin.Context)
}

// InvoiceHandlerInterface defines the methods needed by the invoice routes.
type InvoiceHandlerInterface interface {
	GetInvoiceByID(c *gin.Context)
	UpdateInvoiceStatus(c *gin.Context)
}

// EstimateHandlerInterface defines the methods needed by the estimate and kiosk routes.
type EstimateHandlerInterface interface {
	SendEstimate(c *gin.Context)
	ApproveItem(c *gin.Context)
	DeclineItem(c *gin.Context)
}

// Ensure handlers implements the interface (compile-time check)
var _ JobPartHandlerInterface = (*JobPartHandler)(nil)
var _ InvoiceHandlerInterface = (*InvoiceHandler)(nil)
var _ EstimateHandlerInterface = (*EstimateHandler)(nil)
