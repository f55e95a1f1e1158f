// Package scraper implements the keyword discovery and expansion pipeline:
// variant generation, verification gating, lazy-render probing, bounded
// expansion of the question panel, and the secondary related-terms harvest.
package scraper

import (
	"context"
	"math/rand/v2"
	"net/url"
	"time"

	"paaharvest/internal/config"
	"paaharvest/internal/engine"
	"paaharvest/internal/logger"
	"paaharvest/internal/models"
	"paaharvest/internal/storage"
)

// KeywordResult is one keyword's outcome.
type KeywordResult struct {
	Keyword    string
	Variant    string
	Loaded     int
	NewRecords int
	StoreTotal int
	Succeeded  bool
}

// Harvester drives the whole pipeline against a single browser session.
// Strictly sequential: one keyword, one variant, one round, one node at a
// time.
type Harvester struct {
	eng   engine.Engine
	cfg   *config.Config
	store *storage.Store
	gate  *Gate
	log   *logger.Logger

	// sleep is the single pause primitive; tests replace it to run fast and
	// to drive fake document settling.
	sleep func(time.Duration)
}

// New creates a harvester over the given engine and store.
func New(eng engine.Engine, cfg *config.Config, store *storage.Store, gate *Gate, log *logger.Logger) *Harvester {
	return &Harvester{
		eng:   eng,
		cfg:   cfg,
		store: store,
		gate:  gate,
		log:   log,
		sleep: time.Sleep,
	}
}

// Run processes every configured keyword in order. Per-keyword failures are
// reported in the results, never propagated.
func (h *Harvester) Run(ctx context.Context) []KeywordResult {
	results := make([]KeywordResult, 0, len(h.cfg.Keywords))

	for _, keyword := range h.cfg.Keywords {
		if ctx.Err() != nil {
			h.log.Warn("run cancelled", "error", ctx.Err())

			break
		}

		results = append(results, h.ProcessKeyword(ctx, keyword))
	}

	return results
}

// ProcessKeyword runs the full pipeline for one keyword: seed the dedup set
// from history, then try each search variant in order until one yields at
// least one new record. Checkpointed records from failed attempts stay
// persisted; there is no rollback.
func (h *Harvester) ProcessKeyword(ctx context.Context, keyword string) KeywordResult {
	log := h.log.With("keyword", keyword)
	log.Info("processing keyword")

	sess := NewSession(keyword)

	history := h.store.LoadHistory(keyword)
	sess.SeedSeen(history)

	if len(history) > 0 {
		log.Info("loaded history, duplicates will be skipped", "records", len(history))
	} else {
		log.Info("no history found, starting fresh")
	}

	result := KeywordResult{Keyword: keyword, Loaded: len(history)}

	for _, variant := range Variants(keyword, h.cfg.Variants) {
		if ctx.Err() != nil {
			break
		}

		if variant.IsRetry {
			log.Info("panel not triggered yet, trying variant", "search_term", variant.SearchTerm)
		}

		accepted := h.attemptVariant(ctx, sess, variant)
		if accepted > 0 {
			result.Succeeded = true
			result.Variant = variant.SearchTerm

			if variant.IsRetry {
				log.Info("variant triggered the panel", "search_term", variant.SearchTerm)
			}

			break
		}
	}

	result.NewRecords = sess.Accepted

	if records, err := h.store.Records(keyword); err == nil {
		result.StoreTotal = len(records)
	}

	if !result.Succeeded {
		log.Warn("no panel found for keyword after all variants")
	}

	return result
}

// attemptVariant runs one search attempt end to end and returns the number
// of records it accepted. All faults below keyword level are absorbed here.
func (h *Harvester) attemptVariant(ctx context.Context, sess *Session, variant models.VariantAttempt) int {
	if err := h.eng.Navigate(ctx, h.searchURL(variant.SearchTerm)); err != nil {
		h.log.Warn("search submission failed", "search_term", variant.SearchTerm, "error", err)

		return 0
	}

	h.pace(h.cfg.Pacing.Bounds())

	if h.gate.Detect(ctx, h.eng) {
		h.log.Warn("verification page detected, suspending until resolved")

		if err := h.gate.AwaitResolution(ctx); err != nil {
			h.log.Warn("verification wait interrupted", "error", err)

			return 0
		}

		// Give the page time to refresh after the human finished.
		h.sleep(5 * time.Second)
		h.pace(2*time.Second, 3*time.Second)

		if h.gate.Detect(ctx, h.eng) {
			h.log.Warn("verification still present, abandoning this variant")

			return 0
		}
	}

	found, err := h.probeForPanel(ctx)
	if err != nil {
		h.log.Warn("panel probe failed", "error", err)

		return 0
	}

	if !found {
		h.log.Debug("panel not found", "search_term", variant.SearchTerm)

		return 0
	}

	h.log.Info("panel found, starting extraction", "search_term", variant.SearchTerm)

	stats := h.expand(ctx, sess, variant)
	accepted := stats.Accepted

	accepted += h.harvestRelated(ctx, sess, variant)

	return accepted
}

func (h *Harvester) searchURL(term string) string {
	return h.cfg.Search.BaseURL + "?q=" + url.QueryEscape(term)
}

// pace sleeps a random duration inside [min, max] to approximate human
// pacing. Never a substitute for an explicit readiness check.
func (h *Harvester) pace(min, max time.Duration) {
	d := min
	if max > min {
		d += rand.N(max - min)
	}

	h.sleep(d)
}

func origin(variant models.VariantAttempt) models.RecordOrigin {
	if variant.IsRetry {
		return models.OriginRetry
	}

	return models.OriginOriginal
}
