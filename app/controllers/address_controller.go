package controllers

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Alex-AIMS/nz-addresses/app/requests"
	"github.com/Alex-AIMS/nz-addresses/app/responses"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/Alex-AIMS/nz-addresses/internal/external"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddressController serves resolution, reverse geocoding, autocomplete and batch jobs
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

// NewAddressController creates an AddressController
func NewAddressController(addressService *services.AddressService, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		logger:         logger,
	}
}

// Verify resolves rawAddress. Resolution failures are reported in the body with 200.
func (ac *AddressController) Verify(c *gin.Context) {
	var req requests.VerifyRequest
	_ = c.ShouldBindQuery(&req)

	c.JSON(http.StatusOK, ac.addressService.Verify(c.Request.Context(), req.RawAddress))
}

// CoordinatesForAddress returns latitude and longitude for rawAddress
func (ac *AddressController) CoordinatesForAddress(c *gin.Context) {
	var req requests.VerifyRequest
	_ = c.ShouldBindQuery(&req)

	c.JSON(http.StatusOK, ac.addressService.CoordinatesForAddress(c.Request.Context(), req.RawAddress))
}

// AddressForCoordinates returns the address nearest to latitude, longitude
func (ac *AddressController) AddressForCoordinates(c *gin.Context) {
	var req requests.ReverseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Invalid coordinates: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, ac.addressService.AddressForCoordinates(c.Request.Context(), *req.Latitude, *req.Longitude))
}

// Autocomplete suggests addresses for a partial query
func (ac *AddressController) Autocomplete(c *gin.Context) {
	var req requests.AutocompleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Invalid request: "+err.Error()))
		return
	}

	results, err := ac.addressService.Autocomplete(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.NewError("AUTOCOMPLETE_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, results)
}

// Components returns libpostal components of rawAddress
func (ac *AddressController) Components(c *gin.Context) {
	if !external.Available {
		c.JSON(http.StatusNotImplemented, responses.NewError("NOT_IMPLEMENTED", "libpostal is not available in this build"))
		return
	}

	var req requests.VerifyRequest
	_ = c.ShouldBindQuery(&req)
	if req.RawAddress == "" {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "rawAddress is required"))
		return
	}

	c.JSON(http.StatusOK, responses.ComponentsResponse{
		RawAddress: req.RawAddress,
		Components: external.Parse(req.RawAddress).Map(),
	})
}

// CreateJob starts a batch verification job
func (ac *AddressController) CreateJob(c *gin.Context) {
	var req requests.BatchVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Invalid request: "+err.Error()))
		return
	}

	job, err := ac.addressService.CreateJob(req.Addresses)
	if errors.Is(err, services.ErrTooManyAddresses) {
		c.JSON(http.StatusBadRequest, responses.NewError("TOO_MANY_ADDRESSES", err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, responses.BatchJobResponse{
		JobID:          job.JobID,
		TotalAddresses: job.Total,
		Status:         job.Status,
		Message:        "Job created",
	})
}

// GetJobStatus returns the progress of a job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	status, err := ac.addressService.GetJobStatus(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusNotFound, responses.NewError("JOB_NOT_FOUND", err.Error()))
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:     status.JobID,
		Status:    status.Status,
		Progress:  status.Progress,
		Processed: status.Processed,
		Total:     status.Total,
		Found:     status.Found,
		Message:   status.Message,
	})
}

// GetJobResults returns job results as JSON, or NDJSON with ?format=ndjson
// (gzip-compressed with &gzip=1)
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		ac.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.NewSuccess("Job results", results))
}

func (ac *AddressController) jobError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrJobNotReady) {
		c.JSON(http.StatusConflict, responses.NewError("JOB_NOT_READY", err.Error()))
		return
	}
	c.JSON(http.StatusNotFound, responses.NewError("JOB_NOT_FOUND", err.Error()))
}

func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(jobID)
	if err != nil {
		ac.jobError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Error("Cannot encode NDJSON line", zap.Error(err))
			for range resultChannel {
			}
			return
		}
		writer.Flush()
	}
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
