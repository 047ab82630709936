package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is the production Scheduler: one goroutine draining an inbox.
type Loop struct {
	inbox    chan func()
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

func NewLoop() *Loop {
	return &Loop{
		inbox: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.inbox:
			fn()
		}
	}
}

func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) Post(fn func()) {
	select {
	case l.inbox <- fn:
	case <-l.done:
	}
}

// Call must not be used from the loop goroutine itself.
func (l *Loop) Call(fn func()) {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})

	select {
	case <-ran:
	case <-l.done:
	}
}

func (l *Loop) After(d time.Duration, fn func()) *Token {
	tok := &Token{}
	run := guard(tok, fn)
	t := time.AfterFunc(d, func() { l.Post(run) })
	tok.stop = func() { t.Stop() }
	return tok
}

func (l *Loop) Every(d time.Duration, fn func()) *Token {
	tok := &Token{}
	run := guard(tok, fn)
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	tok.stop = func() {
		ticker.Stop()
		close(quit)
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				l.Post(run)
			case <-quit:
				return
			case <-l.done:
				ticker.Stop()
				return
			}
		}
	}()

	return tok
}
