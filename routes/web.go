package routes

import (
	"github.com/Alex-AIMS/nz-addresses/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes mounts the landing and docs pages
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "NZ Address Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "NZ Address API",
				"endpoints": map[string]string{
					"verify":       "GET /verify?rawAddress=",
					"coordinates":  "GET /coordinatesForAddress?rawAddress=",
					"reverse":      "GET /addressForCoordinates?latitude=&longitude=",
					"autocomplete": "GET /autocomplete?query=&limit=",
					"regions":      "GET /regions",
					"districts":    "GET /regions/:regionId/districts",
					"suburbs":      "GET /districts/:districtId/suburbs",
					"streets":      "GET /suburbs/:suburbId/streets",
					"components":   "GET /v1/addresses/components?rawAddress=",
					"batch":        "POST /v1/addresses/jobs",
					"job_status":   "GET /v1/addresses/jobs/:jobID/status",
					"job_results":  "GET /v1/addresses/jobs/:jobID/results?format=ndjson&gzip=1",
					"admin_stats":  "GET /v1/admin/stats",
					"health":       "GET /health",
					"metrics":      "GET /metrics",
				},
			})
		})
	}
}
