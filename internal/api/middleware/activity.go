package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/service"
)

// Activity returns a middleware that appends one audit entry per completed
// request. Runs after Auth so the caller identity is available; unclassified
// routes are recorded as views.
func Activity(activity *service.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !activity.Enabled() {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		activity.Record(c.Request.Context(), &domain.ActivityLog{
			UserID:       c.GetString(ContextUserID),
			Username:     c.GetString(ContextUsername),
			ActivityType: classify(c.Request.Method, c.FullPath()),
			Method:       c.Request.Method,
			Path:         c.Request.URL.Path,
			StatusCode:   c.Writer.Status(),
			DurationMs:   time.Since(start).Milliseconds(),
			ClientIP:     c.ClientIP(),
		})
	}
}

// classify maps a route to its audit activity type.
func classify(method, routePath string) domain.ActivityType {
	switch {
	case strings.Contains(routePath, "/auth/login"):
		return domain.ActivityLogin
	case strings.Contains(routePath, "/auth/logout"):
		return domain.ActivityLogout
	case strings.Contains(routePath, "upload-image"):
		return domain.ActivityUpload
	case strings.Contains(routePath, "ExtractForm") && method == "POST",
		strings.Contains(routePath, "extract-form"):
		return domain.ActivityExtract
	case strings.Contains(routePath, "/images") && method == "DELETE":
		return domain.ActivityImageDelete
	case strings.Contains(routePath, "/folders") && method == "POST":
		return domain.ActivityFolderCreate
	case strings.Contains(routePath, "/folders") && method == "DELETE":
		return domain.ActivityFolderDelete
	case strings.Contains(routePath, "/folders") && method == "PUT":
		return domain.ActivityFolderRename
	default:
		return domain.ActivityView
	}
}
