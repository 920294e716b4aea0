package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/metrics"
	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"go.uber.org/zap"
)

// Matching constants
const (
	FuzzyThreshold        = 0.6 // similarity must be strictly above
	PartialCandidateLimit = 5
	// a query with at least this many tokens tries partial matching first
	partialFirstTokens = 3
)

// Query is one raw address prepared for the cascade
type Query struct {
	Raw        string
	Normalized string
	Tokens     TokenSet
}

// NewQuery normalizes and classifies raw
func NewQuery(raw string) *Query {
	normalized := normalizer.Normalize(raw)
	return &Query{
		Raw:        raw,
		Normalized: normalized,
		Tokens:     Classify(normalizer.Tokens(normalized)),
	}
}

// Strategy is one stage of the cascade. A nil result with a nil error means
// the stage found nothing and the next one should run.
type Strategy func(ctx context.Context, q *Query) (*models.MatchResult, error)

// Stage is a named Strategy
type Stage struct {
	Name string
	Run  Strategy
}

// Matcher resolves raw addresses by running strategies in order until one of
// them returns a result. Stages never run concurrently.
type Matcher struct {
	addresses store.AddressStore
	hierarchy *HierarchyResolver
	roadTypes *normalizer.RoadTypes
	logger    *zap.Logger
}

// NewMatcher creates a Matcher. roadTypes may be nil for the embedded set.
func NewMatcher(addresses store.AddressStore, spatial store.SpatialStore, roadTypes *normalizer.RoadTypes, logger *zap.Logger) *Matcher {
	if roadTypes == nil {
		roadTypes = normalizer.DefaultRoadTypes()
	}
	return &Matcher{
		addresses: addresses,
		hierarchy: NewHierarchyResolver(spatial, logger),
		roadTypes: roadTypes,
		logger:    logger,
	}
}

// Hierarchy returns the resolver used for matched records
func (m *Matcher) Hierarchy() *HierarchyResolver {
	return m.hierarchy
}

// Cascade returns the stages to try for q, in order
func (m *Matcher) Cascade(q *Query) []Stage {
	exact := Stage{Name: models.StrategyExact, Run: m.matchExact}
	partial := Stage{Name: models.StrategyPartial, Run: m.matchPartial}
	fuzzy := Stage{Name: models.StrategyFuzzy, Run: m.matchFuzzy}

	if len(q.Tokens.Tokens) >= partialFirstTokens {
		return []Stage{partial, exact, fuzzy}
	}
	return []Stage{exact, partial, fuzzy}
}

// Match resolves raw. It never returns an error: store failures, cancellation
// and panics become a not-found result carrying the error text.
func (m *Matcher) Match(ctx context.Context, raw string) (result models.MatchResult) {
	if strings.TrimSpace(raw) == "" {
		metrics.RecordMatch("", metrics.OutcomeEmpty)
		return models.NotFound(models.MessageEmptyAddress)
	}

	defer func() {
		if r := recover(); r != nil {
			result = m.failure(raw, fmt.Errorf("%v", r))
		}
	}()

	q := NewQuery(raw)
	return m.Run(ctx, q, m.Cascade(q))
}

// Run executes stages in order and returns the first result
func (m *Matcher) Run(ctx context.Context, q *Query, stages []Stage) models.MatchResult {
	start := time.Now()

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return m.failure(q.Raw, err)
		}

		stageStart := time.Now()
		res, err := stage.Run(ctx, q)
		metrics.ObserveStage(stage.Name, time.Since(stageStart))
		if err != nil {
			return m.failure(q.Raw, fmt.Errorf("%s match: %w", stage.Name, err))
		}
		if res == nil {
			m.logger.Debug("No match at stage",
				zap.String("stage", stage.Name),
				zap.String("normalized", q.Normalized))
			continue
		}

		res.Strategy = stage.Name
		res.Normalized = q.Normalized
		metrics.RecordMatch(stage.Name, metrics.OutcomeMatched)
		m.logger.Info("Address resolved",
			zap.String("raw", q.Raw),
			zap.String("strategy", stage.Name),
			zap.Int64p("address_id", res.AddressID),
			zap.Duration("duration", time.Since(start)))
		return *res
	}

	metrics.RecordMatch("", metrics.OutcomeNotFound)
	m.logger.Info("Address not found",
		zap.String("raw", q.Raw),
		zap.String("normalized", q.Normalized),
		zap.Duration("duration", time.Since(start)))

	result := models.NotFound(models.MessageNotFound)
	result.Normalized = q.Normalized
	return result
}

func (m *Matcher) failure(raw string, err error) models.MatchResult {
	metrics.RecordMatch("", metrics.OutcomeError)
	m.logger.Error("Address verification failed", zap.String("raw", raw), zap.Error(err))
	return models.NotFound("Verification error: " + err.Error())
}
