package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/config"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/handler"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/middleware"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/observability"
)

// Deps collects everything the router needs wired in
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Screening *handler.ScreeningHandler
	Metrics   *observability.Metrics

	// Saturated reports whether the analysis queue refuses new work.
	Saturated func() bool
}

// SetupRouter builds the HTTP routing tree
func SetupRouter(deps Deps) *gin.Engine {
	if deps.Config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Logger(deps.Logger))
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Screening API is running",
		})
	})

	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(120, time.Minute))
	{
		// Screening submissions back off while the queue is saturated
		screening := api.Group("/screening")
		screening.Use(middleware.Admission(deps.Saturated))
		{
			screening.POST("/images", deps.Screening.ScreenImage)
			screening.POST("/metadata", deps.Screening.ScreenMetadata)
		}

		moderation := api.Group("/moderation")
		{
			moderation.GET("/decisions/:assetId", deps.Screening.GetDecision)
		}

		// Moderator actions require an authenticated caller
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(deps.Config.JWTSecret))
		{
			admin.GET("/moderation/flagged", deps.Screening.ListFlagged)
			admin.PUT("/moderation/decisions/:assetId/status", deps.Screening.SetStatus)
		}
	}

	return r
}
