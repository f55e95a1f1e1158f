package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"paaharvest/internal/logger"
)

// Options configures the browser session.
type Options struct {
	UserAgent   string
	CallTimeout time.Duration
	Headless    bool
}

// Browser is the chromedp-backed Engine implementation. It owns a single
// browser session; all calls are serialized by the caller.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// cdpNode wraps a DevTools node handle.
type cdpNode struct {
	n *cdp.Node
}

func (n cdpNode) String() string {
	return fmt.Sprintf("node(%d)", n.n.NodeID)
}

// Start launches a browser session. The session lives until Close; parent
// cancellation tears it down as well.
func Start(parent context.Context, opts Options) (*Browser, error) {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, flags...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Run with no actions forces the browser process to start now, so init
	// failures surface here instead of on the first navigation.
	startCtx, startCancel := context.WithTimeout(ctx, timeout)
	defer startCancel()

	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		allocCancel()

		return nil, &Error{Kind: KindFailure, Op: "start", Err: err}
	}

	return &Browser{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     timeout,
	}, nil
}

// StartWithRetry launches the browser with a bounded number of attempts.
// Exhaustion is fatal to the process, so the last error is returned intact.
func StartWithRetry(parent context.Context, opts Options, attempts int, delay time.Duration, log *logger.Logger) (*Browser, error) {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		log.Info("initializing browser", "attempt", attempt, "max_attempts", attempts)

		b, err := Start(parent, opts)
		if err == nil {
			return b, nil
		}

		lastErr = err
		log.Warn("browser init failed", "attempt", attempt, "error", err)

		if attempt < attempts {
			select {
			case <-time.After(delay):
			case <-parent.Done():
				return nil, parent.Err()
			}
		}
	}

	return nil, fmt.Errorf("browser init exhausted after %d attempts: %w", attempts, lastErr)
}

// Close shuts the browser down gracefully.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()

	return err
}

// call runs actions against the session with the per-call timeout, honoring
// the caller's context for cancellation.
func (b *Browser) call(ctx context.Context, op string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return wrapErr(op, err)
	}

	return nil
}

func (b *Browser) node(n Node) (*cdp.Node, error) {
	cn, ok := n.(cdpNode)
	if !ok {
		return nil, &Error{Kind: KindFailure, Op: "node", Err: fmt.Errorf("foreign node handle %T", n)}
	}

	return cn.n, nil
}

// Navigate loads the given URL and waits for the document body.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.call(ctx, "navigate",
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// FindOne returns the first element matching selector, without waiting for
// one to appear.
func (b *Browser) FindOne(ctx context.Context, selector string) (Node, error) {
	nodes, err := b.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, &Error{Kind: KindNotFound, Op: "findOne", Err: fmt.Errorf("no match for %q", selector)}
	}

	return nodes[0], nil
}

// FindAll returns all elements currently matching selector.
func (b *Browser) FindAll(ctx context.Context, selector string) ([]Node, error) {
	return b.findAll(ctx, selector, nil)
}

// FindOneIn returns the first element matching selector under scope.
func (b *Browser) FindOneIn(ctx context.Context, scope Node, selector string) (Node, error) {
	nodes, err := b.FindAllIn(ctx, scope, selector)
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, &Error{Kind: KindNotFound, Op: "findOneIn", Err: fmt.Errorf("no match for %q", selector)}
	}

	return nodes[0], nil
}

// FindAllIn returns all elements matching selector under scope.
func (b *Browser) FindAllIn(ctx context.Context, scope Node, selector string) ([]Node, error) {
	cn, err := b.node(scope)
	if err != nil {
		return nil, err
	}

	return b.findAll(ctx, selector, cn)
}

func (b *Browser) findAll(ctx context.Context, selector string, scope *cdp.Node) ([]Node, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		opts = append(opts, chromedp.FromNode(scope))
	}

	var nodes []*cdp.Node
	if err := b.call(ctx, "findAll", chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}

	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, cdpNode{n: n})
	}

	return out, nil
}

// Text returns the rendered text of the node.
func (b *Browser) Text(ctx context.Context, n Node) (string, error) {
	cn, err := b.node(n)
	if err != nil {
		return "", err
	}

	var text string
	if err := b.call(ctx, "text", chromedp.Text([]cdp.NodeID{cn.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}

	return text, nil
}

// Attribute returns the named attribute value and whether it is present.
func (b *Browser) Attribute(ctx context.Context, n Node, name string) (string, bool, error) {
	cn, err := b.node(n)
	if err != nil {
		return "", false, err
	}

	var value string

	var ok bool

	err = b.call(ctx, "attribute", chromedp.AttributeValue([]cdp.NodeID{cn.NodeID}, name, &value, &ok, chromedp.ByNodeID))
	if err != nil {
		return "", false, err
	}

	return value, ok, nil
}

// Click dispatches a trusted mouse click at the node's center.
func (b *Browser) Click(ctx context.Context, n Node) error {
	cn, err := b.node(n)
	if err != nil {
		return err
	}

	return b.call(ctx, "click", chromedp.MouseClickNode(cn))
}

// JSClick invokes the element's click handler directly, bypassing hit
// testing. Used as the fallback when a trusted click cannot reach the node.
func (b *Browser) JSClick(ctx context.Context, n Node) error {
	cn, err := b.node(n)
	if err != nil {
		return err
	}

	return b.call(ctx, "jsClick", chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(cn.NodeID).Do(ctx)
		if err != nil {
			return err
		}

		_, exp, err := runtime.CallFunctionOn("function() { this.click(); }").
			WithObjectID(obj.ObjectID).
			Do(ctx)
		if err != nil {
			return err
		}

		if exp != nil {
			return exp
		}

		return nil
	}))
}

// ScrollIntoView brings the node into the viewport.
func (b *Browser) ScrollIntoView(ctx context.Context, n Node) error {
	cn, err := b.node(n)
	if err != nil {
		return err
	}

	return b.call(ctx, "scrollIntoView", chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(cn.NodeID).Do(ctx)
	}))
}

// ScrollTo scrolls the window to the given vertical offset.
func (b *Browser) ScrollTo(ctx context.Context, y int64) error {
	return b.call(ctx, "scrollTo", chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", y), nil))
}

// PageText returns the rendered text of the whole document.
func (b *Browser) PageText(ctx context.Context) (string, error) {
	var text string
	if err := b.call(ctx, "pageText", chromedp.Evaluate("document.body ? document.body.innerText : ''", &text)); err != nil {
		return "", err
	}

	return text, nil
}

// CurrentURL returns the document's current location.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := b.call(ctx, "currentURL", chromedp.Location(&url)); err != nil {
		return "", err
	}

	return url, nil
}

// DocumentExtent returns the document's scrollable height in pixels.
func (b *Browser) DocumentExtent(ctx context.Context) (int64, error) {
	var height int64
	if err := b.call(ctx, "documentExtent", chromedp.Evaluate("document.body ? document.body.scrollHeight : 0", &height)); err != nil {
		return 0, err
	}

	return height, nil
}

// wrapErr maps raw chromedp/DevTools failures onto the engine error kinds.
func wrapErr(op string, err error) error {
	kind := KindFailure

	switch {
	// A node without a usable box model cannot receive a trusted click;
	// surfaced as intercepted so callers fall back to the scripted click.
	case errors.Is(err, chromedp.ErrInvalidBoxModel):
		kind = KindIntercepted
	case isStaleMessage(err):
		kind = KindStale
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// isStaleMessage matches the DevTools errors raised when a node id no longer
// resolves after a document mutation.
func isStaleMessage(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "could not find node") ||
		strings.Contains(msg, "no node with given id") ||
		strings.Contains(msg, "node with given id does not belong to the document") ||
		strings.Contains(msg, "not attached to")
}
