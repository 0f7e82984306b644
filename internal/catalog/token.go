package catalog

import (
	"context"
	"sync/atomic"
)

// Token marks a fetch sequence whose initiating view has gone away. A
// cancelled sequence still finishes its in-flight request; only publishing
// its result is suppressed. A nil *Token is never cancelled.
type Token struct {
	cancelled atomic.Bool
	done      <-chan struct{}
}

func NewToken() *Token {
	return &Token{}
}

// TokenFor returns a token that also counts as cancelled once ctx is done.
func TokenFor(ctx context.Context) *Token {
	return &Token{done: ctx.Done()}
}

func (t *Token) Cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

func (t *Token) Cancelled() bool {
	if t == nil {
		return false
	}
	if t.cancelled.Load() {
		return true
	}
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
