package scraper

import (
	"context"
	"strings"

	"paaharvest/internal/engine"
	"paaharvest/internal/logger"
)

// WaitFunc blocks until an external party reports the verification page as
// resolved, or ctx is cancelled. The CLI wires this to an operator prompt;
// tests inject a pre-resolved signal.
type WaitFunc func(ctx context.Context) error

// Gate detects block/verification pages and suspends the run until a human
// resolves them. The wait is the only unbounded suspension point in the
// pipeline; it must stay interruptible by process termination.
type Gate struct {
	indicators []string
	wait       WaitFunc
	log        *logger.Logger
}

// NewGate creates a verification gate over the given indicator substrings.
func NewGate(indicators []string, wait WaitFunc, log *logger.Logger) *Gate {
	lowered := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		lowered = append(lowered, strings.ToLower(ind))
	}

	return &Gate{
		indicators: lowered,
		wait:       wait,
		log:        log,
	}
}

// Detect reports whether the current page looks like a verification page:
// any indicator matching the page text or URL, case-insensitively.
func (g *Gate) Detect(ctx context.Context, eng engine.Engine) bool {
	text, err := eng.PageText(ctx)
	if err != nil {
		g.log.Debug("could not read page text for verification check", "error", err)
	}

	url, err := eng.CurrentURL(ctx)
	if err != nil {
		g.log.Debug("could not read current URL for verification check", "error", err)
	}

	text = strings.ToLower(text)
	url = strings.ToLower(url)

	for _, ind := range g.indicators {
		if strings.Contains(text, ind) || strings.Contains(url, ind) {
			return true
		}
	}

	return false
}

// AwaitResolution blocks until the external resolution signal fires or ctx
// is cancelled.
func (g *Gate) AwaitResolution(ctx context.Context) error {
	return g.wait(ctx)
}
