package scraper

import (
	"context"
	"time"
)

// probeForPanel forces lazily-rendered content to materialize by stepping
// down the document until the question panel appears or the scroll budget
// runs out. Content only materializes in response to viewport proximity, so
// a single check at load time undercounts availability.
func (h *Harvester) probeForPanel(ctx context.Context) (bool, error) {
	sel := h.cfg.Selectors.Panel

	nodes, err := h.eng.FindAll(ctx, sel)
	if err != nil {
		return false, err
	}

	if len(nodes) > 0 {
		return true, nil
	}

	pause := h.cfg.Scroll.GetPause()

	for step := 1; step <= h.cfg.Scroll.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		target := int64(h.cfg.Scroll.StepPx) * int64(step)
		if err := h.eng.ScrollTo(ctx, target); err != nil {
			return false, err
		}

		h.sleep(pause)

		nodes, err = h.eng.FindAll(ctx, sel)
		if err != nil {
			return false, err
		}

		if len(nodes) > 0 {
			h.log.Debug("panel appeared while scrolling", "step", step)

			// Best-effort viewport positioning on the first panel node.
			if err := h.eng.ScrollIntoView(ctx, nodes[0]); err != nil {
				h.log.Debug("could not scroll panel into view", "error", err)
			}

			return true, nil
		}

		extent, err := h.eng.DocumentExtent(ctx)
		if err != nil {
			return false, err
		}

		// The document stopped growing; further steps cannot reveal more.
		if target >= extent {
			break
		}
	}

	// One reset-to-origin pass and a final presence check.
	if err := h.eng.ScrollTo(ctx, 0); err != nil {
		return false, err
	}

	h.sleep(time.Second)

	nodes, err = h.eng.FindAll(ctx, sel)
	if err != nil {
		return false, err
	}

	return len(nodes) > 0, nil
}
