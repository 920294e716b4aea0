package controllers

import (
	"net/http"

	"github.com/Alex-AIMS/nz-addresses/app/responses"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BrowseController lists the administrative hierarchy
type BrowseController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

// NewBrowseController creates a BrowseController
func NewBrowseController(addressService *services.AddressService, logger *zap.Logger) *BrowseController {
	return &BrowseController{addressService: addressService, logger: logger}
}

// Regions lists regional councils
func (bc *BrowseController) Regions(c *gin.Context) {
	regions, err := bc.addressService.Regions(c.Request.Context())
	bc.respond(c, regions, err)
}

// Districts lists the districts of :regionId
func (bc *BrowseController) Districts(c *gin.Context) {
	districts, err := bc.addressService.Districts(c.Request.Context(), c.Param("regionId"))
	bc.respond(c, districts, err)
}

// Suburbs lists the suburbs of :districtId
func (bc *BrowseController) Suburbs(c *gin.Context) {
	suburbs, err := bc.addressService.Suburbs(c.Request.Context(), c.Param("districtId"))
	bc.respond(c, suburbs, err)
}

// Streets lists the streets of :suburbId
func (bc *BrowseController) Streets(c *gin.Context) {
	streets, err := bc.addressService.Streets(c.Request.Context(), c.Param("suburbId"))
	bc.respond(c, streets, err)
}

func (bc *BrowseController) respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		bc.logger.Error("Browse query failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("DATABASE_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, data)
}
