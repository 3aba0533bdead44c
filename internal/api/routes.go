package api

import (
	"github.com/RishiKendai/aegis-console/internal/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(RequestLogger())
	router.Use(MetricsMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/classes/:classId/sessions", handler.MountSession)
		api.GET("/classes/:classId/scan-status", handler.GetClassScanStatus)

		sessions := api.Group("/sessions/:sessionId")
		sessions.GET("", handler.GetSession)
		sessions.DELETE("", handler.UnmountSession)
		sessions.POST("/scan", handler.TriggerScan)
		sessions.POST("/modal/close", handler.CloseModal)
		sessions.PUT("/student-view", handler.SetStudentView)
		sessions.GET("/stats", handler.GetStats)
		sessions.GET("/viewer-status", handler.GetViewerStatus)
		sessions.GET("/notifications", handler.DrainNotifications)
	}

	return router
}
