package scraper

import (
	"paaharvest/internal/config"
	"paaharvest/internal/models"
)

// Variants produces the ordered search terms to try for a keyword: the raw
// keyword first, then each configured rewrite in rule order. The ordering is
// significant because the orchestrator stops at the first variant that
// yields records.
func Variants(keyword string, rules []config.VariantRule) []models.VariantAttempt {
	out := make([]models.VariantAttempt, 0, len(rules)+1)
	out = append(out, models.VariantAttempt{SearchTerm: keyword})

	for _, rule := range rules {
		term := rule.Text + keyword
		if rule.Placement == config.PlacementSuffix {
			term = keyword + rule.Text
		}

		out = append(out, models.VariantAttempt{SearchTerm: term, IsRetry: true})
	}

	return out
}
