package handlers

import (
	"net/http"

	"go-shop-api/internal/services"
	"go-shop-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// JobPartHandler holds dependencies for attaching stocked parts to jobs.
type JobPartHandler struct {
	service   services.InventoryService
	validator *validator.Validate
}

func NewJobPartHandler(service services.InventoryService, validate *validator.Validate) *JobPartHandler {
	return &JobPartHandler{service: service, validator: validate}
}

// AttachInventory godoc
// @Summary      Attach a stocked part to a job
// @Description  Creates a job part and deducts stock. An identical request repeated within the duplicate window is answered with 200 and suppressed=true instead of creating a second part.
// @Tags         job-parts
// @Accept       json
// @Produce      json
// @Param        id   path      string                      true  "Job ID" Format(uuid)
// @Param        part body      dto.AttachInventoryRequest  true  "Stock item, source and quantity"
// @Success      201  {object}  dto.AttachInventoryResponse "Part attached"
// @Success      200  {object}  dto.AttachInventoryResponse "Duplicate suppressed"
// @Failure      400  {object}  map[string]string "Invalid input"
// @Failure      401  {object}  map[string]string "Unauthorized"
// @Failure      404  {object}  map[string]string "Stock item not found"
// @Failure      409  {object}  map[string]interface{} "Insufficient stock"
// @Failure      500  {object}  map[string]string "Internal Server Error"
// @Router       /jobs/{id}/parts [post]
// @Security     BearerAuth
func (h *JobPartHandler) AttachInventory(c *gin.Context) {
	shopID, ok := shopFromContext(c, "AttachInventory")
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id", "job")
	if !ok {
		return
	}

	var req dto.AttachInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	req.JobID = jobID
	req.ShopID = shopID
	if !validate(c, h.validator, req) {
		return
	}

	res, err := h.service.AttachInventoryToJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "AttachInventory", err)
		return
	}

	body := dto.AttachInventoryResponse{
		Suppressed: res.Suppressed,
		Layer:      string(res.Layer),
		JobPart:    dto.NewJobPartResponse(res.Link),
	}
	if res.Suppressed {
		c.JSON(http.StatusOK, body)
		return
	}
	c.JSON(http.StatusCreated, body)
}

// ListJobParts godoc
// @Summary      List the parts on a job
// @Tags         job-parts
// @Produce      json
// @Param        id   path      string  true  "Job ID" Format(uuid)
// @Success      200  {array}   dto.JobPartResponse
// @Failure      400  {object}  map[string]string "Invalid ID format"
// @Failure      401  {object}  map[string]string "Unauthorized"
// @Router       /jobs/{id}/parts [get]
// @Security     BearerAuth
func (h *JobPartHandler) ListJobParts(c *gin.Context) {
	shopID, ok := shopFromContext(c, "ListJobParts")
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id", "job")
	if !ok {
		return
	}

	links, err := h.service.ListJobParts(c.Request.Context(), &dto.ListJobPartsRequest{JobID: jobID, ShopID: shopID})
	if err != nil {
		respondError(c, "ListJobParts", err)
		return
	}
	resp := make([]*dto.JobPartResponse, len(links))
	for i := range links {
		resp[i] = dto.NewJobPartResponse(&links[i])
	}
	c.JSON(http.StatusOK, resp)
}

// DetachJobPart godoc
// @Summary      Remove a part from a job
// @Description  Deletes the job part; stock that was deducted for it is returned.
// @Tags         job-parts
// @Param        id   path      string  true  "Job part ID" Format(uuid)
// @Success      204  "No Content"
// @Failure      400  {object}  map[string]string "Invalid ID format"
// @Failure      401  {object}  map[string]string "Unauthorized"
// @Failure      404  {object}  map[string]string "Job part not found"
// @Router       /job-parts/{id} [delete]
// @Security     BearerAuth
func (h *JobPartHandler) DetachJobPart(c *gin.Context) {
	shopID, ok := shopFromContext(c, "DetachJobPart")
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "job part")
	if !ok {
		return
	}

	if err := h.service.DetachJobPart(c.Request.Context(), &dto.DetachJobPartRequest{ID: id, ShopID: shopID}); err != nil {
		respondError(c, "DetachJobPart", err)
		return
	}
	c.Status(http.StatusNoContent)
}
