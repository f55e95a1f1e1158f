// Package engine defines the page-automation boundary used by the harvester
// and its Chrome DevTools implementation.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an automation failure.
type Kind int

const (
	// KindFailure is a generic engine failure.
	KindFailure Kind = iota
	// KindStale means a node handle was invalidated by a document mutation.
	KindStale
	// KindNotFound means no element matched the selector.
	KindNotFound
	// KindIntercepted means an interaction could not reach the target element.
	KindIntercepted
)

// Error is an automation failure with a kind callers can branch on.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func isKind(err error, kind Kind) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Kind == kind
}

// IsStale reports whether err is a stale node handle failure.
func IsStale(err error) bool { return isKind(err, KindStale) }

// IsNotFound reports whether err is a missing element failure.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsIntercepted reports whether err is an intercepted interaction failure.
func IsIntercepted(err error) bool { return isKind(err, KindIntercepted) }

// Node is an opaque handle to a located element. Handles stay valid only
// until the document mutates; later calls with an invalidated handle fail
// with KindStale. Callers must re-query rather than retain handles across
// document changes.
type Node interface {
	String() string
}

// Engine is the rendered-page automation surface the harvester runs against.
// All calls may fail with an *Error carrying one of the Kind values.
type Engine interface {
	Navigate(ctx context.Context, url string) error
	FindOne(ctx context.Context, selector string) (Node, error)
	FindAll(ctx context.Context, selector string) ([]Node, error)
	FindOneIn(ctx context.Context, scope Node, selector string) (Node, error)
	FindAllIn(ctx context.Context, scope Node, selector string) ([]Node, error)
	Text(ctx context.Context, n Node) (string, error)
	Attribute(ctx context.Context, n Node, name string) (string, bool, error)
	Click(ctx context.Context, n Node) error
	JSClick(ctx context.Context, n Node) error
	ScrollIntoView(ctx context.Context, n Node) error
	ScrollTo(ctx context.Context, y int64) error
	PageText(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	DocumentExtent(ctx context.Context) (int64, error)
	Close() error
}
