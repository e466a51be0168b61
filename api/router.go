// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siddarth24/joblo/api/handler"
	"github.com/siddarth24/joblo/api/middleware"
	"github.com/siddarth24/joblo/cache"
	"github.com/siddarth24/joblo/config"
	"github.com/siddarth24/joblo/models"
	"github.com/siddarth24/joblo/pipeline"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *pipeline.Pipeline, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ExtractResponse{
			Success: false,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeInternal,
				Message: "internal server error",
			},
		})
	}))
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Extract (adaptive job-posting extraction)
	protected.POST("/extract", handler.Extract(p, cc))

	return r
}
