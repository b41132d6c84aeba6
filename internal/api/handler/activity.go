package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tranqh/formintake/internal/api/middleware"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/repository"
	"github.com/tranqh/formintake/internal/service"
)

// ActivityHandler handles audit-trail query endpoints.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// List handles GET /activity-logs (admin only).
func (h *ActivityHandler) List(c *gin.Context) {
	f := repository.ActivityFilter{
		UserID:       c.Query("user_id"),
		ActivityType: domain.ActivityType(c.Query("activity_type")),
		Page:         intQuery(c, "page", 1),
		Limit:        intQuery(c, "limit", 50),
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid start_date"})
			return
		}
		f.From = t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid end_date"})
			return
		}
		f.To = t
	}

	logs, total, err := h.activity.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to retrieve activity logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// MyActivity handles GET /activity-logs/my-activity: the caller's own trail.
func (h *ActivityHandler) MyActivity(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	if limit > 100 {
		limit = 100
	}
	f := repository.ActivityFilter{
		UserID: c.GetString(middleware.ContextUserID),
		Page:   intQuery(c, "page", 1),
		Limit:  limit,
	}

	logs, total, err := h.activity.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to retrieve your activity logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// Summary handles GET /activity-logs/summary. Admins can target any user;
// everyone else sees their own.
func (h *ActivityHandler) Summary(c *gin.Context) {
	days := intQuery(c, "days", 7)
	if days < 1 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Days must be between 1 and 365"})
		return
	}

	targetUserID := c.GetString(middleware.ContextUserID)
	if c.GetString(middleware.ContextRole) == "admin" {
		if q := c.Query("user_id"); q != "" {
			targetUserID = q
		}
	}

	summary, err := h.activity.Summary(c.Request.Context(), targetUserID, time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to retrieve activity summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": targetUserID,
		"days":    days,
		"summary": summary,
	})
}

// Cleanup handles POST /activity-logs/cleanup (admin only).
func (h *ActivityHandler) Cleanup(c *gin.Context) {
	daysToKeep := intQuery(c, "days_to_keep", 90)
	if daysToKeep < 30 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Days to keep must be at least 30"})
		return
	}

	deleted, err := h.activity.Cleanup(c.Request.Context(), daysToKeep)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to clean up activity logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"deleted_count": deleted,
		"days_kept":     daysToKeep,
	})
}
