package scraper

import (
	"context"
	"strings"

	"paaharvest/internal/models"
)

// harvestRelated performs the one-shot extraction of the related-terms
// panel. It is independent of expansion depth; every accepted term is
// recorded at discovery level 0.
func (h *Harvester) harvestRelated(ctx context.Context, sess *Session, variant models.VariantAttempt) int {
	items, err := h.eng.FindAll(ctx, h.cfg.Selectors.RelatedPrimary)
	if err != nil {
		h.log.Warn("related panel query failed", "error", err)

		return 0
	}

	if len(items) == 0 {
		items, err = h.eng.FindAll(ctx, h.cfg.Selectors.RelatedFallback)
		if err != nil {
			h.log.Warn("related panel fallback query failed", "error", err)

			return 0
		}
	}

	accepted := 0

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		text, err := h.eng.Text(ctx, item)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" || !sess.MarkSeen(text) {
			continue
		}

		href, ok, err := h.eng.Attribute(ctx, item, "href")
		if err != nil || !ok {
			href = ""

			// Container items carry the link on a descendant anchor instead.
			if anchor, aerr := h.eng.FindOneIn(ctx, item, "a"); aerr == nil {
				if v, ok, herr := h.eng.Attribute(ctx, anchor, "href"); herr == nil && ok {
					href = v
				}
			}
		}

		rec := models.HarvestRecord{
			OriginalKeyword: sess.Keyword,
			SearchTerm:      variant.SearchTerm,
			Kind:            models.KindRelatedTerm,
			Text:            text,
			Snippet:         "",
			SourceLink:      href,
			DiscoveryLevel:  0,
			Origin:          origin(variant),
		}

		h.store.Checkpoint(rec)
		sess.Accepted++
		accepted++
	}

	h.log.Info("related terms captured", "count", accepted)

	return accepted
}
