package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tranqh/formintake/internal/api/middleware"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/service"
	"github.com/tranqh/formintake/internal/tasks"
)

// ExtractHandler handles the extraction endpoints, both synchronous and
// queued.
type ExtractHandler struct {
	images    *service.ImageService
	extractor *tasks.ExtractTask
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(images *service.ImageService, extractor *tasks.ExtractTask) *ExtractHandler {
	return &ExtractHandler{images: images, extractor: extractor}
}

// Extract handles POST /ExtractForm: run the full extraction pipeline
// before responding.
func (h *ExtractHandler) Extract(c *gin.Context) {
	var p domain.ExtractPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.ImageName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "ImageName is required"})
		return
	}

	analysis, err := h.extractor.Process(c.Request.Context(), p)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Extraction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Image processed successfully",
		"analysis_result": analysis,
		"received":        p,
	})
}

// QueueExtract handles POST /queue/extract-form: guard against duplicate
// flights, mark Processing, enqueue, return the job ID.
func (h *ExtractHandler) QueueExtract(c *gin.Context) {
	var p domain.ExtractPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.ImageName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "ImageName is required"})
		return
	}

	taskID, err := h.images.EnqueueExtract(c.Request.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "Image not found. Upload first."})
		case errors.Is(err, service.ErrAlreadyProcessing):
			c.JSON(http.StatusOK, gin.H{"status": "already_processing"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": "queued"})
}

type formInfoRequest struct {
	Title     string `json:"title"`
	ImageName string `json:"ImageName"`
}

// GetFormInfo handles POST /GetFormExtractInformation: fetch the extraction
// record by image name.
func (h *ExtractHandler) GetFormInfo(c *gin.Context) {
	var req formInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	name := req.Title
	if name == "" {
		name = req.ImageName
	}
	if name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Missing 'title' or 'ImageName'"})
		return
	}

	rec, err := h.images.GetExtraction(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
