package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tranqh/formintake/internal/api/handler"
	"github.com/tranqh/formintake/internal/api/middleware"
	"github.com/tranqh/formintake/internal/config"
	"github.com/tranqh/formintake/internal/service"
)

// Handlers bundles every route handler the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Image    *handler.ImageHandler
	Folder   *handler.FolderHandler
	Extract  *handler.ExtractHandler
	Task     *handler.TaskHandler
	Activity *handler.ActivityHandler
}

// SetupRouter configures the Gin router with all routes. Paths mirror the
// public API contract: reads are open, mutations require a bearer token.
func SetupRouter(
	cfg *config.ServerConfig,
	h Handlers,
	auth *service.AuthService,
	activity *service.ActivityService,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	generalLimit := middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.General, cfg.RateLimit.Burst))
	uploadLimit := middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.Upload, cfg.RateLimit.Burst))
	aiLimit := middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.AI, cfg.RateLimit.Burst))
	requireAuth := middleware.Auth(auth)
	audit := middleware.Activity(activity)

	// Health
	r.GET("/health", h.Health.Health)
	r.GET("/health/ready", h.Health.Ready)

	// Auth
	r.POST("/auth/login", generalLimit, audit, h.Auth.Login)
	r.GET("/auth/me", requireAuth, h.Auth.Me)
	r.POST("/auth/logout", requireAuth, audit, h.Auth.Logout)

	// Images
	r.POST("/upload-image/", uploadLimit, requireAuth, audit, h.Image.Upload)
	r.POST("/images/", requireAuth, audit, h.Image.Save)
	r.GET("/images/", h.Image.List)
	r.GET("/images/:image_name", h.Image.Get)
	r.DELETE("/images/:image_name", requireAuth, audit, h.Image.Delete)

	// Folders
	r.GET("/folders/", h.Folder.List)
	r.POST("/folders/", requireAuth, audit, h.Folder.Create)
	r.POST("/folders/rename", requireAuth, audit, h.Folder.Rename)
	r.DELETE("/folders/*folder_path", requireAuth, audit, h.Folder.Delete)

	// Extraction
	r.POST("/ExtractForm", aiLimit, requireAuth, audit, h.Extract.Extract)
	r.POST("/GetFormExtractInformation", h.Extract.GetFormInfo)

	// Queue
	r.POST("/queue/upload-image", uploadLimit, requireAuth, audit, h.Image.QueueUpload)
	r.POST("/queue/extract-form", aiLimit, requireAuth, audit, h.Extract.QueueExtract)
	r.GET("/tasks/:task_id", generalLimit, h.Task.Status)

	// Activity audit trail
	logs := r.Group("/activity-logs", generalLimit, requireAuth)
	{
		logs.GET("", middleware.RequireRole("admin"), h.Activity.List)
		logs.GET("/my-activity", h.Activity.MyActivity)
		logs.GET("/summary", h.Activity.Summary)
		logs.POST("/cleanup", middleware.RequireRole("admin"), h.Activity.Cleanup)
	}

	return r
}
