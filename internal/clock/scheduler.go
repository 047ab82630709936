// Package clock provides the single logic loop the game runs on, plus
// cancellable timers that deliver their callbacks onto that loop.
package clock

import (
	"sync/atomic"
	"time"
)

// Scheduler runs callbacks one at a time on a single logic thread.
// Callbacks scheduled with After or Every never run once their Token has
// been cancelled, even if the timer already fired.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) *Token
	Every(d time.Duration, fn func()) *Token
	// Post queues fn from any goroutine.
	Post(fn func())
	// Call runs fn on the logic thread and waits for it.
	Call(fn func())
}

// Token cancels a scheduled task.
type Token struct {
	cancelled atomic.Bool
	stop      func()
}

func (t *Token) Cancel() {
	if t == nil {
		return
	}
	if t.cancelled.CompareAndSwap(false, true) && t.stop != nil {
		t.stop()
	}
}

func (t *Token) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// guard wraps fn so that it is skipped once tok is cancelled
func guard(tok *Token, fn func()) func() {
	return func() {
		if !tok.Cancelled() {
			fn()
		}
	}
}
