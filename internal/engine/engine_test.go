package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindHelpers(t *testing.T) {
	stale := &Error{Kind: KindStale, Op: "text", Err: errors.New("could not find node")}
	wrapped := fmt.Errorf("extracting question: %w", stale)

	if !IsStale(wrapped) {
		t.Error("IsStale should see through wrapping")
	}

	if IsNotFound(wrapped) || IsIntercepted(wrapped) {
		t.Error("kind helpers must not match other kinds")
	}

	if IsStale(errors.New("could not find node")) {
		t.Error("IsStale must not match bare errors")
	}
}

func TestWrapErr_Mapping(t *testing.T) {
	scenarios := []struct {
		name string
		err  error
		want Kind
	}{
		{"stale node id", errors.New("Could not find node with given id (-32000)"), KindStale},
		{"detached node", errors.New("Node with given id does not belong to the document"), KindStale},
		{"generic", errors.New("websocket closed"), KindFailure},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			err := wrapErr("op", sc.err)

			var ee *Error
			if !errors.As(err, &ee) {
				t.Fatalf("wrapErr must return *Error, got %T", err)
			}

			if ee.Kind != sc.want {
				t.Errorf("Expected kind %d, got %d", sc.want, ee.Kind)
			}

			if !errors.Is(err, sc.err) {
				t.Error("wrapped error must unwrap to the original")
			}
		})
	}
}
