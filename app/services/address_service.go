package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/metrics"
	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
	"github.com/Alex-AIMS/nz-addresses/internal/parser"
	"github.com/Alex-AIMS/nz-addresses/internal/search"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch limits
const (
	MaxBatchAddresses   = 20000
	DefaultBatchWorkers = 8
	// nearest addresses farther than this many metres carry a warning
	DistanceWarningMetres = 100
)

// Job states
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobNotReady      = errors.New("job results not ready")
	ErrTooManyAddresses = fmt.Errorf("batch exceeds %d addresses", MaxBatchAddresses)
	ErrEmptyBatch       = errors.New("batch contains no addresses")
)

// AddressService resolves addresses and serves the read paths around the matcher
type AddressService struct {
	matcher       *parser.Matcher
	addresses     store.AddressStore
	browse        store.BrowseStore
	autocompleter *search.Autocompleter
	cache         ICacheService // nil disables caching
	logger        *zap.Logger
	workers       int

	jobCtx    context.Context
	cancelJob context.CancelFunc

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]models.BatchResult
}

// JobStatus is the progress of a batch job
type JobStatus struct {
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Found     int       `json:"found"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAddressService creates an AddressService. cache may be nil.
func NewAddressService(matcher *parser.Matcher, addresses store.AddressStore, browse store.BrowseStore, autocompleter *search.Autocompleter, cache ICacheService, logger *zap.Logger) *AddressService {
	ctx, cancel := context.WithCancel(context.Background())
	return &AddressService{
		matcher:       matcher,
		addresses:     addresses,
		browse:        browse,
		autocompleter: autocompleter,
		cache:         cache,
		logger:        logger,
		workers:       DefaultBatchWorkers,
		jobCtx:        ctx,
		cancelJob:     cancel,
		jobs:          make(map[string]*JobStatus),
		jobResults:    make(map[string][]models.BatchResult),
	}
}

// SetBatchWorkers sets how many addresses a batch resolves concurrently
func (as *AddressService) SetBatchWorkers(n int) {
	if n > 0 {
		as.workers = n
	}
}

// Verify resolves raw through the cache and the match cascade. Failures are
// reported in the result message, never as an error.
func (as *AddressService) Verify(ctx context.Context, raw string) models.MatchResult {
	if strings.TrimSpace(raw) == "" || as.cache == nil {
		return as.matcher.Match(ctx, raw)
	}

	key := normalizer.Normalize(raw)
	cached, found, err := as.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCache("error")
		as.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
	case found && cached.IsValidStrategy():
		metrics.RecordCache("hit")
		return *cached
	case found:
		// written by a build with a different strategy set; recompute and overwrite
		metrics.RecordCache("miss")
		as.logger.Debug("Ignoring cached result", zap.String("key", key), zap.String("strategy", cached.Strategy))
	default:
		metrics.RecordCache("miss")
	}

	result := as.matcher.Match(ctx, raw)
	if cacheable(result) {
		if err := as.cache.Set(ctx, key, &result); err != nil {
			as.logger.Warn("Cannot cache result", zap.String("key", key), zap.Error(err))
		}
	}
	return result
}

// only definitive outcomes are cached; failures carry request-specific errors
func cacheable(result models.MatchResult) bool {
	return result.Found || result.Message == models.MessageNotFound
}

// CoordinatesForAddress resolves raw and returns its position. Latitude is
// the register Y and longitude the register X.
func (as *AddressService) CoordinatesForAddress(ctx context.Context, raw string) models.CoordinatesResult {
	verification := as.Verify(ctx, raw)

	if !verification.Found || !verification.HasCoordinates() {
		return models.CoordinatesResult{
			Success:        false,
			AddressDetails: &verification,
			Message:        verification.Message,
		}
	}

	lat, lon := *verification.Y, *verification.X
	return models.CoordinatesResult{
		Success:        true,
		Latitude:       &lat,
		Longitude:      &lon,
		AddressDetails: &verification,
		Message:        models.MessageCoordinatesOK,
	}
}

// AddressForCoordinates returns the geocoded address nearest to a WGS84 point
func (as *AddressService) AddressForCoordinates(ctx context.Context, latitude, longitude float64) models.MatchResult {
	row, err := as.addresses.FindNearest(ctx, latitude, longitude)
	if err != nil {
		return as.reverseFailure(latitude, longitude, err)
	}
	if row == nil {
		return models.NotFound(models.MessageNoNearby)
	}

	h, err := as.matcher.Hierarchy().Resolve(ctx, &row.Record)
	if err != nil {
		return as.reverseFailure(latitude, longitude, err)
	}

	result := parser.FoundResult(&row.Record)
	result.RegionID = h.RegionID
	result.DistrictID = h.DistrictID
	result.SuburbID = h.SuburbID
	result.Strategy = models.StrategyNearest
	result.Message = NearestMessage(row.Distance)

	as.logger.Info("Nearest address found",
		zap.Float64("latitude", latitude),
		zap.Float64("longitude", longitude),
		zap.Int64("address_id", row.Record.AddressID),
		zap.Float64("distance", row.Distance))
	return result
}

// NearestMessage describes a nearest match distance metres away
func NearestMessage(distance float64) string {
	if distance > DistanceWarningMetres {
		return fmt.Sprintf("Nearest address found (Warning: Nearest address is %.0fm away)", math.Round(distance))
	}
	return "Nearest address found"
}

func (as *AddressService) reverseFailure(latitude, longitude float64, err error) models.MatchResult {
	as.logger.Error("Error finding address for coordinates",
		zap.Float64("latitude", latitude),
		zap.Float64("longitude", longitude),
		zap.Error(err))
	return models.NotFound("Error finding address: " + err.Error())
}

// Autocomplete suggests addresses for a partially typed query
func (as *AddressService) Autocomplete(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	return as.autocompleter.Autocomplete(ctx, query, limit)
}

// Regions lists regional councils
func (as *AddressService) Regions(ctx context.Context) ([]models.Region, error) {
	return as.browse.Regions(ctx)
}

// Districts lists the districts of a region
func (as *AddressService) Districts(ctx context.Context, regionID string) ([]models.District, error) {
	return as.browse.Districts(ctx, regionID)
}

// Suburbs lists the suburbs of a district
func (as *AddressService) Suburbs(ctx context.Context, districtID string) ([]models.Suburb, error) {
	return as.browse.Suburbs(ctx, districtID)
}

// Streets lists the streets of a suburb
func (as *AddressService) Streets(ctx context.Context, suburbID string) ([]models.Street, error) {
	return as.browse.Streets(ctx, suburbID)
}

// VerifyBatch resolves every address with a bounded number of workers. The
// output keeps the input order.
func (as *AddressService) VerifyBatch(ctx context.Context, addresses []string, progress func(models.BatchResult)) []models.BatchResult {
	results := make([]models.BatchResult, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(as.workers)

	for i, raw := range addresses {
		i, raw := i, raw
		g.Go(func() error {
			results[i] = models.BatchResult{
				Index:      i,
				RawAddress: raw,
				Result:     as.Verify(gctx, raw),
			}
			if progress != nil {
				progress(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ProcessBatch resolves inputs and writes one NDJSON line per address to w
func (as *AddressService) ProcessBatch(ctx context.Context, inputs []string, w io.Writer) error {
	as.logger.Info("Processing batch addresses", zap.Int("total", len(inputs)))

	results := as.VerifyBatch(ctx, inputs, nil)
	if err := WriteNDJSON(w, results); err != nil {
		return err
	}

	as.logger.Info("Completed batch processing", zap.Int("total", len(inputs)))
	return ctx.Err()
}

// WriteNDJSON writes results one JSON document per line
func WriteNDJSON(w io.Writer, results []models.BatchResult) error {
	enc := json.NewEncoder(w)
	for i := range results {
		if err := enc.Encode(&results[i]); err != nil {
			return fmt.Errorf("write result %d: %w", i, err)
		}
	}
	return nil
}

// CreateJob registers a batch job and starts it in the background
func (as *AddressService) CreateJob(addresses []string) (*JobStatus, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(addresses) > MaxBatchAddresses {
		return nil, ErrTooManyAddresses
	}

	now := time.Now()
	job := &JobStatus{
		JobID:     uuid.NewString(),
		Status:    JobQueued,
		Total:     len(addresses),
		Message:   "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}

	as.mu.Lock()
	as.jobs[job.JobID] = job
	snapshot := *job
	as.mu.Unlock()

	go as.ProcessBatchJob(job.JobID, addresses)

	return &snapshot, nil
}

// ProcessBatchJob runs a registered job to completion
func (as *AddressService) ProcessBatchJob(jobID string, addresses []string) {
	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = JobRunning
		job.Message = "Processing"
	})

	results := as.VerifyBatch(as.jobCtx, addresses, func(r models.BatchResult) {
		as.updateJob(jobID, func(job *JobStatus) {
			job.Processed++
			if r.Result.Found {
				job.Found++
			}
			job.Progress = float64(job.Processed) / float64(job.Total)
		})
	})

	if err := as.jobCtx.Err(); err != nil {
		as.updateJob(jobID, func(job *JobStatus) {
			job.Status = JobFailed
			job.Message = "Cancelled: " + err.Error()
		})
		as.logger.Warn("Batch job cancelled", zap.String("job_id", jobID))
		return
	}

	as.mu.Lock()
	as.jobResults[jobID] = results
	if job, ok := as.jobs[jobID]; ok {
		job.Status = JobDone
		job.Message = "Completed"
		job.UpdatedAt = time.Now()
	}
	as.mu.Unlock()

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_addresses", len(addresses)))
}

func (as *AddressService) updateJob(jobID string, fn func(job *JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if job, ok := as.jobs[jobID]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

// GetJobStatus returns a snapshot of the job
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// GetJobResults returns the results of a finished job
func (as *AddressService) GetJobResults(jobID string) ([]models.BatchResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, exists := as.jobs[jobID]; !exists {
		return nil, ErrJobNotFound
	}
	results, exists := as.jobResults[jobID]
	if !exists {
		return nil, ErrJobNotReady
	}
	return results, nil
}

// GetJobResultsStream streams the results of a finished job
func (as *AddressService) GetJobResultsStream(jobID string) (<-chan models.BatchResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan models.BatchResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			resultChannel <- result
		}
	}()

	return resultChannel, nil
}

// Close cancels running jobs
func (as *AddressService) Close() {
	as.cancelJob()
}
