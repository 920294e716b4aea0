package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/requests"
	"github.com/Alex-AIMS/nz-addresses/app/responses"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves operational endpoints
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController creates an AdminController
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// GetStats returns register, cache and runtime statistics
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Cannot read stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("STATS_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// InvalidateCache drops cached results; the body is optional
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Invalid request: "+err.Error()))
		return
	}

	startTime := time.Now()
	if err := ac.adminService.InvalidateCache(c.Request.Context(), req.DatasetVersion); err != nil {
		ac.logger.Error("Cannot invalidate cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("INVALIDATE_ERROR", err.Error()))
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccess("Cache invalidated", map[string]interface{}{
		"dataset_version":    req.DatasetVersion,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}))
}

// SyncIndex copies the register into the autocomplete index
func (ac *AdminController) SyncIndex(c *gin.Context) {
	var req requests.SyncIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Invalid request: "+err.Error()))
		return
	}

	result, err := ac.adminService.SyncIndex(c.Request.Context(), req.BatchSize)
	if errors.Is(err, services.ErrIndexDisabled) {
		c.JSON(http.StatusServiceUnavailable, responses.NewError("INDEX_DISABLED", err.Error()))
		return
	}
	if err != nil {
		ac.logger.Error("Index sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("SYNC_ERROR", err.Error()))
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccess("Index synced", result))
}
