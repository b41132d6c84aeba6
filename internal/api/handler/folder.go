package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tranqh/formintake/internal/api/middleware"
	"github.com/tranqh/formintake/internal/service"
)

// FolderHandler handles folder management endpoints.
type FolderHandler struct {
	folders *service.FolderService
}

// NewFolderHandler creates a new folder handler.
func NewFolderHandler(folders *service.FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

// List handles GET /folders/.
func (h *FolderHandler) List(c *gin.Context) {
	folders, err := h.folders.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

type folderCreateRequest struct {
	FolderPath string `json:"folderPath" binding:"required"`
}

// Create handles POST /folders/.
func (h *FolderHandler) Create(c *gin.Context) {
	var req folderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "folderPath is required"})
		return
	}

	clean, err := h.folders.Create(c.Request.Context(), req.FolderPath)
	if err != nil {
		if errors.Is(err, service.ErrUnsafePath) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid folderPath"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Folder created or already exists",
		"folderPath": clean,
	})
}

// Delete handles DELETE /folders/*folder_path: the folder, its subtree
// records, and the blob prefix.
func (h *FolderHandler) Delete(c *gin.Context) {
	path := c.Param("folder_path")
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}

	if err := h.folders.Delete(c.Request.Context(), path); err != nil {
		if errors.Is(err, service.ErrUnsafePath) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid folder path"})
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Folder delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted", "folderPath": path})
}

type folderRenameRequest struct {
	OldPath string `json:"oldPath" binding:"required"`
	NewPath string `json:"newPath" binding:"required"`
}

// Rename handles POST /folders/rename.
func (h *FolderHandler) Rename(c *gin.Context) {
	var req folderRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "oldPath and newPath required"})
		return
	}

	if err := h.folders.Rename(c.Request.Context(), req.OldPath, req.NewPath); err != nil {
		if errors.Is(err, service.ErrUnsafePath) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid folder path"})
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Folder rename failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Folder renamed",
		"oldPath": req.OldPath,
		"newPath": req.NewPath,
	})
}
