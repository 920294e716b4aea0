package parser

import (
	"context"
	"fmt"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"go.uber.org/zap"
)

// matchExact matches the address number and only the first non-numeric token
// against the road name. Longer street names and localities are left to the
// partial stage.
func (m *Matcher) matchExact(ctx context.Context, q *Query) (*models.MatchResult, error) {
	if !q.Tokens.HasNumber() {
		return nil, nil
	}
	street := FirstStreetToken(q.Tokens.Tokens)
	if street == "" {
		return nil, nil
	}

	rec, err := m.addresses.FindByNumberAndRoad(ctx, *q.Tokens.Number, street)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	return m.hierarchy.BuildResult(ctx, q.Normalized, rec, models.MessageMatchFound, models.MessageMissingSpatial)
}

// matchPartial splits the tokens after the number into street and city and
// picks the best ranked candidate.
func (m *Matcher) matchPartial(ctx context.Context, q *Query) (*models.MatchResult, error) {
	if !q.Tokens.HasNumber() || len(q.Tokens.Remainder) == 0 {
		return nil, nil
	}
	number := *q.Tokens.Number

	for i, seg := range Segment(q.Tokens.Remainder, m.roadTypes) {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			m.logger.Debug("Retrying partial match with two-word street",
				zap.String("street", seg.Street),
				zap.String("city", seg.City))
		}

		rows, err := m.addresses.FindRanked(ctx, number, seg.Street, seg.City, PartialCandidateLimit)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}

		candidates := SortCandidates(rows)
		chosen := SelectCandidate(candidates, seg.HasCity())

		message := models.MessageUniqueMatch
		if len(candidates) > 1 {
			message = fmt.Sprintf("Match found (%d matches)", len(candidates))
		}
		return m.hierarchy.BuildResult(ctx, q.Normalized, &chosen.Record, message, message+" but missing spatial data")
	}
	return nil, nil
}

// matchFuzzy is the last resort: trigram similarity of the whole normalized
// query against the ASCII full address.
func (m *Matcher) matchFuzzy(ctx context.Context, q *Query) (*models.MatchResult, error) {
	if q.Normalized == "" {
		return nil, nil
	}

	row, err := m.addresses.FindSimilar(ctx, q.Normalized, FuzzyThreshold)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	if row.Similarity <= FuzzyThreshold {
		m.logger.Warn("Discarding fuzzy candidate at or below threshold",
			zap.Int64("address_id", row.Record.AddressID),
			zap.Float64("similarity", row.Similarity))
		return nil, nil
	}

	return m.hierarchy.BuildResult(ctx, q.Normalized, &row.Record,
		fmt.Sprintf("Fuzzy match found (similarity: %.2f)", row.Similarity),
		fmt.Sprintf("Address found (similarity: %.2f) but missing spatial data", row.Similarity))
}
