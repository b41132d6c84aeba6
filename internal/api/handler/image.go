package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tranqh/formintake/internal/api/middleware"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/service"
)

// ImageHandler handles image upload and metadata endpoints.
type ImageHandler struct {
	images  *service.ImageService
	tempDir string
}

// NewImageHandler creates a new image handler. tempDir receives spooled
// multipart uploads before they reach the blob store or the queue.
func NewImageHandler(images *service.ImageService, tempDir string) *ImageHandler {
	return &ImageHandler{images: images, tempDir: tempDir}
}

// spool writes the multipart file to a uniquely named temp file, keeping
// the original extension so downstream validation sees it.
func (h *ImageHandler) spool(c *gin.Context, prefix string) (localPath, originalFilename string, err error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", "", errors.New("file is required")
	}
	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return "", "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	localPath = filepath.Join(h.tempDir, prefix+"_"+strings.ReplaceAll(uuid.New().String(), "-", "")+ext)
	if err := c.SaveUploadedFile(file, localPath); err != nil {
		return "", "", err
	}
	return localPath, file.Filename, nil
}

// Upload handles POST /upload-image/: validate, store the blob, write the
// metadata record, all before responding.
func (h *ImageHandler) Upload(c *gin.Context) {
	status := c.PostForm("status")
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "status is required"})
		return
	}
	folderPath, err := service.SanitizeFolderPath(c.PostForm("folderPath"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid folderPath"})
		return
	}

	localPath, originalFilename, err := h.spool(c, "upload")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	defer os.Remove(localPath)

	_, err = h.images.Upload(c.Request.Context(), localPath, originalFilename, domain.ImageStatus(status), folderPath)
	if err != nil {
		var vErr *service.FileValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": vErr.Error()})
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Upload failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded and saved successfully."})
}

// QueueUpload handles POST /queue/upload-image: spool, enqueue, return the
// job ID without waiting for the store.
func (h *ImageHandler) QueueUpload(c *gin.Context) {
	status := c.PostForm("status")
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "status is required"})
		return
	}
	folderPath, err := service.SanitizeFolderPath(c.PostForm("folderPath"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid folderPath"})
		return
	}

	localPath, originalFilename, err := h.spool(c, "enqueue")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	taskID, err := h.images.EnqueueUpload(c.Request.Context(), localPath, originalFilename, domain.ImageStatus(status), folderPath)
	if err != nil {
		os.Remove(localPath)
		var vErr *service.FileValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Unsupported image format."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": "queued"})
}

// Save handles POST /images/: create or overwrite a metadata record.
func (h *ImageHandler) Save(c *gin.Context) {
	var rec domain.ImageRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid image data: " + err.Error()})
		return
	}
	if rec.ImageName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "ImageName is required"})
		return
	}
	if err := h.images.Save(c.Request.Context(), &rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image data saved successfully."})
}

// Get handles GET /images/:image_name.
func (h *ImageHandler) Get(c *gin.Context) {
	rec, err := h.images.Get(c.Request.Context(), c.Param("image_name"))
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

// Delete handles DELETE /images/:image_name: metadata record only.
func (h *ImageHandler) Delete(c *gin.Context) {
	name := c.Param("image_name")
	if err := h.images.Delete(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image '" + name + "' deleted successfully."})
}

// List handles GET /images/ with optional folder filter and pagination.
func (h *ImageHandler) List(c *gin.Context) {
	var folderFilter *string
	if raw := c.Query("folderPath"); raw != "" {
		clean, err := service.SanitizeFolderPath(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid folderPath"})
			return
		}
		folderFilter = &clean
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	data, total, err := h.images.List(c.Request.Context(), folderFilter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total})
}
