package scraper

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"paaharvest/internal/engine"
	"paaharvest/internal/models"
)

// expandStats summarizes one expansion run.
type expandStats struct {
	Rounds   int
	Clicks   int
	Accepted int
}

// expand runs bounded-depth expansion over the question panel. Each round
// walks the live node list: the list is re-queried after every processed
// node, so questions revealed mid-round join the same traversal, and no
// handle from a previous query is ever reused. A round that makes zero
// clicks ends the whole expansion early since further rounds cannot reveal
// new nodes.
func (h *Harvester) expand(ctx context.Context, sess *Session, variant models.VariantAttempt) expandStats {
	var stats expandStats

	for round := 0; round < h.cfg.MaxDepth; round++ {
		if ctx.Err() != nil {
			break
		}

		h.log.Info("expansion round", "round", round+1)

		stats.Rounds++

		clicks, accepted := h.expandRound(ctx, sess, variant, round)
		stats.Clicks += clicks
		stats.Accepted += accepted

		if clicks == 0 {
			h.log.Debug("no new questions clicked this round, stopping expansion")

			break
		}

		h.pace(1*time.Second, 3*time.Second)
	}

	return stats
}

// maxRoundNodes caps one round's walk so a panel that appends nodes faster
// than the walk drains them cannot pin a round open forever. Real panels top
// out far below this.
const maxRoundNodes = 64

// expandRound walks the panel's current question nodes in document order.
// Node-level faults are logged and skipped; they never abort the round.
func (h *Harvester) expandRound(ctx context.Context, sess *Session, variant models.VariantAttempt, round int) (clicks, accepted int) {
	for i := 0; i < maxRoundNodes; i++ {
		if ctx.Err() != nil {
			return clicks, accepted
		}

		pairs, err := h.eng.FindAll(ctx, h.cfg.Selectors.Panel)
		if err != nil {
			h.log.Warn("panel re-query failed, ending round", "error", err)

			return clicks, accepted
		}

		if i >= len(pairs) {
			return clicks, accepted
		}

		clicked, rec, err := h.processQuestion(ctx, sess, pairs[i], variant, round)
		if clicked {
			clicks++
		}

		if err != nil {
			if engine.IsStale(err) {
				h.log.Warn("stale question node, skipping")
			} else {
				h.log.Warn("error processing question node, continuing", "error", err)
			}

			continue
		}

		if rec != nil {
			h.store.Checkpoint(*rec)
			sess.Accepted++
			accepted++
		}
	}

	return clicks, accepted
}

// processQuestion handles one question pair: dedup, expand if collapsed,
// extract the revealed answer. The question text enters the seen set before
// any click attempt so a later extraction failure cannot cause reprocessing.
func (h *Harvester) processQuestion(ctx context.Context, sess *Session, pair engine.Node, variant models.VariantAttempt, round int) (bool, *models.HarvestRecord, error) {
	question, err := h.eng.FindOneIn(ctx, pair, h.cfg.Selectors.Question)
	if err != nil {
		return false, nil, err
	}

	text, err := h.eng.Text(ctx, question)
	if err != nil {
		return false, nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" || !sess.MarkSeen(text) {
		return false, nil, nil
	}

	clicked := false

	state, present, err := h.eng.Attribute(ctx, question, h.cfg.Selectors.ExpandedAttr)
	if err != nil {
		return false, nil, err
	}

	if present && state == "false" {
		if !h.safeClick(ctx, question) {
			h.log.Warn("click failed, skipping question", "question", headOf(text, 30))

			return false, nil, nil
		}

		clicked = true

		// Let the revealed answer content render.
		h.pace(h.cfg.Pacing.Bounds())
	}

	snippet, link := h.extractAnswer(ctx, pair, text)

	rec := &models.HarvestRecord{
		OriginalKeyword: sess.Keyword,
		SearchTerm:      variant.SearchTerm,
		Kind:            models.KindQuestion,
		Text:            text,
		Snippet:         snippet,
		SourceLink:      link,
		DiscoveryLevel:  round + 1,
		Origin:          origin(variant),
	}

	return clicked, rec, nil
}

// extractAnswer pulls the revealed snippet and source link from a question
// pair using the primary structural pattern. Absence of that pattern is an
// expected outcome, not an error: it falls back to scanning the pair's
// descendant text blocks for the first one long enough and distinct from the
// question itself.
func (h *Harvester) extractAnswer(ctx context.Context, pair engine.Node, question string) (string, string) {
	if node, err := h.eng.FindOneIn(ctx, pair, h.cfg.Selectors.Snippet); err == nil {
		snippet, err := h.eng.Text(ctx, node)
		if err == nil {
			var link string

			if anchor, err := h.eng.FindOneIn(ctx, node, "a"); err == nil {
				if href, ok, err := h.eng.Attribute(ctx, anchor, "href"); err == nil && ok {
					link = href
				}
			}

			return snippet, link
		}
	}

	blocks, err := h.eng.FindAllIn(ctx, pair, "div")
	if err != nil {
		return "", ""
	}

	for _, block := range blocks {
		text, err := h.eng.Text(ctx, block)
		if err != nil {
			continue
		}

		if utf8.RuneCountInString(text) > h.cfg.Selectors.MinSnippetChars && text != question {
			return text, ""
		}
	}

	return "", ""
}

// safeClick is the guarded click used on question nodes: bring into view,
// pause, direct click. An intercepted click falls back to one forced
// scripted click; a stale handle aborts immediately since the round's live
// re-query will pick up successor state; anything else retries with a short
// backoff up to the attempt bound.
func (h *Harvester) safeClick(ctx context.Context, n engine.Node) bool {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		if err := h.eng.ScrollIntoView(ctx, n); err != nil {
			if engine.IsStale(err) {
				return false
			}
		}

		h.sleep(300 * time.Millisecond)

		err := h.eng.Click(ctx, n)
		if err == nil {
			return true
		}

		switch {
		case engine.IsIntercepted(err):
			if jsErr := h.eng.JSClick(ctx, n); jsErr == nil {
				return true
			}
		case engine.IsStale(err):
			return false
		}

		if attempt < maxAttempts {
			h.sleep(500 * time.Millisecond)
		}
	}

	return false
}

func headOf(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	return string(runes[:max]) + "..."
}
