package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/handler"
	"github.com/paperflow/paperflow-backend/internal/middleware"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Bundle     *handler.BundleHandler
	Collision  *handler.CollisionHandler
	Paper      *handler.PaperHandler
	Task       *handler.TaskHandler
	Prediction *handler.PredictionHandler
	Admin      *handler.AdminHandler
	System     *handler.SystemHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestID())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireWorkerJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireWorkerJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Scan Group (Operator JWT) ──────────────────────────────────
	scanAPI := router.Group("/api/v1/scan")
	scanAPI.Use(middleware.RequireOperatorJWT(authService))
	{
		scanAPI.POST("/bundles", handlers.Bundle.Stage)
		scanAPI.GET("/bundles", handlers.Bundle.List)
		scanAPI.GET("/bundles/:bundleId", handlers.Bundle.Get)
		scanAPI.DELETE("/bundles/:bundleId", handlers.Bundle.Delete)
		scanAPI.GET("/bundles/:bundleId/pages", handlers.Bundle.Pages)
		scanAPI.POST("/bundles/:bundleId/read-qr", handlers.Bundle.ReadQR)
		scanAPI.POST("/bundles/:bundleId/push", handlers.Bundle.Push)

		scanAPI.POST("/bundles/:bundleId/pages/:order/discard", handlers.Bundle.DiscardPage)
		scanAPI.POST("/bundles/:bundleId/pages/:order/knowify", handlers.Bundle.KnowifyPage)
		scanAPI.POST("/bundles/:bundleId/pages/:order/extralise", handlers.Bundle.ExtralisePage)
		scanAPI.POST("/bundles/:bundleId/pages/:order/unknowify", handlers.Bundle.UnknowifyPage)

		scanAPI.GET("/bundles/:bundleId/collisions", handlers.Collision.ListByBundle)
		scanAPI.POST("/collisions/:collisionId/resolve", handlers.Collision.Resolve)

		scanAPI.GET("/papers", handlers.Paper.List)
		scanAPI.GET("/papers/:paperNumber", handlers.Paper.Get)
		scanAPI.GET("/papers/:paperNumber/tasks", handlers.Task.ListByPaper)
		scanAPI.GET("/papers/:paperNumber/predictions", handlers.Prediction.ListByPaper)

		scanAPI.POST("/predictions", handlers.Prediction.Submit)
	}

	// ─── 3. Task Group (Worker JWT) ────────────────────────────────────
	taskAPI := router.Group("/api/v1/tasks")
	taskAPI.Use(middleware.RequireWorkerJWT(authService))
	{
		taskAPI.GET("", handlers.Task.ListAvailable)
		taskAPI.PATCH("/:taskId/claim", handlers.Task.Claim)
		taskAPI.PUT("/:taskId", handlers.Task.Complete)
		taskAPI.DELETE("/:taskId/claim", handlers.Task.Unclaim)
	}

	// ─── 4. WebSocket Group (Operator WS Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireOperatorWSAuth(authService))
	{
		ws.GET("/scan/bundles/:bundleId/progress", handlers.WS.BundleProgressStream)
	}

	// ─── 5. Admin Group (Operator JWT) ─────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireOperatorJWT(authService))
	{
		adminAPI.GET("/layout", handlers.Admin.GetLayout)
		adminAPI.PUT("/layout", handlers.Admin.SaveLayout)
		adminAPI.POST("/papers/build", handlers.Admin.BuildPapers)
		adminAPI.POST("/users", handlers.Admin.CreateUser)
		adminAPI.POST("/users/:userId/disable", handlers.Admin.DisableUser)
		adminAPI.PATCH("/tasks/:taskId/priority", handlers.Admin.SetTaskPriority)
		adminAPI.POST("/tasks/:taskId/reset", handlers.Admin.ResetTask)
		adminAPI.POST("/tasks/sweep", handlers.Admin.SweepClaims)
		adminAPI.GET("/system/status", handlers.System.Status)
	}

	return router
}
