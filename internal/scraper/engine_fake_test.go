package scraper

import (
	"context"
	"errors"
	"fmt"

	"paaharvest/internal/config"
	"paaharvest/internal/engine"
)

// fakeNode is a scripted element handle.
type fakeNode struct {
	id       int
	tag      string
	text     string
	attrs    map[string]string
	children []*fakeNode
	pair     *fakePair
	stale    bool
}

func (n *fakeNode) String() string { return fmt.Sprintf("fake(%d)", n.id) }

// pendingReveal is a question pair staged to join the document after a
// number of panel enumerations, modeling asynchronous materialization.
type pendingReveal struct {
	pair  *fakePair
	delay int
}

// fakePair is one scripted question node with its answer structure.
type fakePair struct {
	container     *fakeNode
	question      *fakeNode
	snippet       *fakeNode
	blocks        []*fakeNode
	reveals       []pendingReveal
	clickFailures int
	clickFailKind engine.Kind
}

// fakeEngine implements engine.Engine over a mutable scripted document.
type fakeEngine struct {
	sel config.SelectorConfig

	pairs   []*fakePair
	pending []pendingReveal

	related         []*fakeNode
	relatedFallback []*fakeNode

	pageText string
	url      string
	extent   int64

	// Number of downward ScrollTo calls before the panel enumerates;
	// negative means it never appears.
	visibleAfterScrolls int

	scrolls       []int64
	downScrolls   int
	clickAttempts int
	clicks        int
	navs          []string

	onNavigate func(url string)
	onClick    func(p *fakePair)

	nextID int
}

func newFakeEngine(sel config.SelectorConfig) *fakeEngine {
	return &fakeEngine{
		sel:    sel,
		url:    "https://search.test/results",
		extent: 4000,
	}
}

func (f *fakeEngine) newNode(tag, text string) *fakeNode {
	f.nextID++

	return &fakeNode{id: f.nextID, tag: tag, text: text, attrs: map[string]string{}}
}

// makePair builds a collapsed question pair without attaching it.
func (f *fakeEngine) makePair(question string) *fakePair {
	p := &fakePair{
		container: f.newNode("div", ""),
		question:  f.newNode("div", question),
	}
	p.question.attrs["aria-expanded"] = "false"
	p.container.pair = p
	p.question.pair = p

	return p
}

// addPair attaches a new collapsed question pair to the document.
func (f *fakeEngine) addPair(question string) *fakePair {
	p := f.makePair(question)
	f.pairs = append(f.pairs, p)

	return p
}

func (f *fakeEngine) withSnippet(p *fakePair, text, href string) {
	p.snippet = f.newNode("div", text)
	if href != "" {
		a := f.newNode("a", "")
		a.attrs["href"] = href
		p.snippet.children = append(p.snippet.children, a)
	}
}

func (f *fakeEngine) withBlocks(p *fakePair, texts ...string) {
	for _, t := range texts {
		p.blocks = append(p.blocks, f.newNode("div", t))
	}
}

// revealOnClick stages question to appear delay panel enumerations after p
// is clicked.
func (f *fakeEngine) revealOnClick(p *fakePair, question string, delay int) *fakePair {
	rp := f.makePair(question)
	p.reveals = append(p.reveals, pendingReveal{pair: rp, delay: delay})

	return rp
}

func (f *fakeEngine) addRelated(tag, text, href string) *fakeNode {
	n := f.newNode(tag, text)
	if href != "" {
		if tag == "a" {
			n.attrs["href"] = href
		} else {
			a := f.newNode("a", "")
			a.attrs["href"] = href
			n.children = append(n.children, a)
		}
	}

	f.related = append(f.related, n)

	return n
}

func (f *fakeEngine) settlePending() {
	var still []pendingReveal

	for _, r := range f.pending {
		r.delay--
		if r.delay <= 0 {
			f.pairs = append(f.pairs, r.pair)
		} else {
			still = append(still, r)
		}
	}

	f.pending = still
}

func (f *fakeEngine) panelVisible() bool {
	if f.visibleAfterScrolls < 0 {
		return false
	}

	return f.downScrolls >= f.visibleAfterScrolls
}

func kindErr(k engine.Kind) error {
	return &engine.Error{Kind: k, Op: "fake", Err: errors.New("injected failure")}
}

func (f *fakeEngine) Navigate(_ context.Context, url string) error {
	f.navs = append(f.navs, url)
	f.scrolls = nil
	f.downScrolls = 0

	if f.onNavigate != nil {
		f.onNavigate(url)
	}

	return nil
}

func (f *fakeEngine) FindOne(ctx context.Context, selector string) (engine.Node, error) {
	nodes, err := f.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, kindErr(engine.KindNotFound)
	}

	return nodes[0], nil
}

func (f *fakeEngine) FindAll(_ context.Context, selector string) ([]engine.Node, error) {
	switch selector {
	case f.sel.Panel:
		f.settlePending()

		if !f.panelVisible() {
			return nil, nil
		}

		nodes := make([]engine.Node, 0, len(f.pairs))
		for _, p := range f.pairs {
			nodes = append(nodes, p.container)
		}

		return nodes, nil
	case f.sel.RelatedPrimary:
		return toNodes(f.related), nil
	case f.sel.RelatedFallback:
		return toNodes(f.relatedFallback), nil
	}

	return nil, nil
}

func toNodes(ns []*fakeNode) []engine.Node {
	out := make([]engine.Node, 0, len(ns))
	for _, n := range ns {
		out = append(out, n)
	}

	return out
}

func (f *fakeEngine) FindOneIn(_ context.Context, scope engine.Node, selector string) (engine.Node, error) {
	n := scope.(*fakeNode)
	if n.stale {
		return nil, kindErr(engine.KindStale)
	}

	if p := n.pair; p != nil && n == p.container {
		switch selector {
		case f.sel.Question:
			return p.question, nil
		case f.sel.Snippet:
			if p.snippet != nil {
				return p.snippet, nil
			}

			return nil, kindErr(engine.KindNotFound)
		}
	}

	if selector == "a" {
		for _, c := range n.children {
			if c.tag == "a" {
				return c, nil
			}
		}
	}

	return nil, kindErr(engine.KindNotFound)
}

func (f *fakeEngine) FindAllIn(_ context.Context, scope engine.Node, selector string) ([]engine.Node, error) {
	n := scope.(*fakeNode)
	if n.stale {
		return nil, kindErr(engine.KindStale)
	}

	if p := n.pair; p != nil && n == p.container && selector == "div" {
		return toNodes(p.blocks), nil
	}

	return nil, nil
}

func (f *fakeEngine) Text(_ context.Context, node engine.Node) (string, error) {
	n := node.(*fakeNode)
	if n.stale {
		return "", kindErr(engine.KindStale)
	}

	return n.text, nil
}

func (f *fakeEngine) Attribute(_ context.Context, node engine.Node, name string) (string, bool, error) {
	n := node.(*fakeNode)
	if n.stale {
		return "", false, kindErr(engine.KindStale)
	}

	v, ok := n.attrs[name]

	return v, ok, nil
}

func (f *fakeEngine) Click(_ context.Context, node engine.Node) error {
	f.clickAttempts++

	n := node.(*fakeNode)
	if n.stale {
		return kindErr(engine.KindStale)
	}

	p := n.pair
	if p == nil {
		return kindErr(engine.KindFailure)
	}

	if p.clickFailures > 0 {
		p.clickFailures--

		return kindErr(p.clickFailKind)
	}

	f.expandPair(p)

	return nil
}

func (f *fakeEngine) JSClick(_ context.Context, node engine.Node) error {
	n := node.(*fakeNode)
	if n.stale {
		return kindErr(engine.KindStale)
	}

	if n.pair == nil {
		return kindErr(engine.KindFailure)
	}

	f.expandPair(n.pair)

	return nil
}

func (f *fakeEngine) expandPair(p *fakePair) {
	f.clicks++
	p.question.attrs["aria-expanded"] = "true"
	f.pending = append(f.pending, p.reveals...)
	p.reveals = nil

	if f.onClick != nil {
		f.onClick(p)
	}
}

func (f *fakeEngine) ScrollIntoView(_ context.Context, node engine.Node) error {
	if node.(*fakeNode).stale {
		return kindErr(engine.KindStale)
	}

	return nil
}

func (f *fakeEngine) ScrollTo(_ context.Context, y int64) error {
	f.scrolls = append(f.scrolls, y)
	if y > 0 {
		f.downScrolls++
	}

	return nil
}

func (f *fakeEngine) PageText(_ context.Context) (string, error) { return f.pageText, nil }

func (f *fakeEngine) CurrentURL(_ context.Context) (string, error) { return f.url, nil }

func (f *fakeEngine) DocumentExtent(_ context.Context) (int64, error) { return f.extent, nil }

func (f *fakeEngine) Close() error { return nil }
