package routes

import (
	"context"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/controllers"
	"github.com/Alex-AIMS/nz-addresses/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Controllers groups the handlers mounted by SetupAllRoutes
type Controllers struct {
	Address *controllers.AddressController
	Browse  *controllers.BrowseController
	Admin   *controllers.AdminController
	Health  *controllers.HealthController
}

// SetupLegacyRoutes mounts the original top-level endpoints
func SetupLegacyRoutes(router *gin.Engine, ctrl Controllers) {
	router.GET("/verify", ctrl.Address.Verify)
	router.GET("/coordinatesForAddress", ctrl.Address.CoordinatesForAddress)
	router.GET("/addressForCoordinates", ctrl.Address.AddressForCoordinates)
	router.GET("/autocomplete", ctrl.Address.Autocomplete)

	router.GET("/regions", ctrl.Browse.Regions)
	router.GET("/regions/:regionId/districts", ctrl.Browse.Districts)
	router.GET("/districts/:districtId/suburbs", ctrl.Browse.Suburbs)
	router.GET("/suburbs/:suburbId/streets", ctrl.Browse.Streets)
}

// SetupAPIRoutes mounts the versioned API
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.GET("/verify", ctrl.Address.Verify)
			addresses.GET("/coordinates", ctrl.Address.CoordinatesForAddress)
			addresses.GET("/reverse", ctrl.Address.AddressForCoordinates)
			addresses.GET("/autocomplete", ctrl.Address.Autocomplete)
			addresses.GET("/components", ctrl.Address.Components)
			addresses.POST("/jobs", ctrl.Address.CreateJob)
			addresses.GET("/jobs/:jobID/status", ctrl.Address.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", ctrl.Address.GetJobResults)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", ctrl.Admin.GetStats)
			admin.POST("/cache/invalidate", ctrl.Admin.InvalidateCache)
			admin.POST("/index/sync", ctrl.Admin.SyncIndex)
		}

		v1.GET("/health", ctrl.Health.Live)
	}
}

// SetupHealthRoutes mounts liveness and readiness probes
func SetupHealthRoutes(router *gin.Engine, health *controllers.HealthController) {
	router.GET("/health", health.Live)
	router.GET("/live", health.Live)
	router.GET("/ready", health.Ready)
}

// SetupMetricsRoutes exposes Prometheus metrics
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SetupAllRoutes mounts middleware and every route
func SetupAllRoutes(router *gin.Engine, ctrl Controllers, requestTimeout time.Duration, logger *zap.Logger) {
	setupMiddleware(router, requestTimeout, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Health)
	SetupLegacyRoutes(router, ctrl)
	SetupAPIRoutes(router, ctrl)
	SetupMetricsRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine, requestTimeout time.Duration, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(metrics.Middleware())
	if requestTimeout > 0 {
		router.Use(timeout(requestTimeout))
	}
}

// timeout bounds every store call made while serving the request
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
