package parser

import (
	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Measure compares the normalized query with the matched address. It returns
// nil when there is no query text to compare.
func Measure(normalized string, rec *models.AddressRecord) *models.QualityInfo {
	if normalized == "" || rec == nil {
		return nil
	}

	target := rec.FullAddressASCII
	if target == "" {
		target = normalizer.FoldASCII(rec.FullAddress)
	}
	target = normalizer.Normalize(target)

	return &models.QualityInfo{
		Similarity:   smetrics.JaroWinkler(normalized, target, 0.7, 4),
		EditDistance: levenshtein.ComputeDistance(normalized, target),
	}
}
