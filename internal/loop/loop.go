package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Scheduler runs callbacks on the goroutine that owns client state.
type Scheduler interface {
	// Post queues fn to run after everything already queued.
	Post(fn func())
	// AfterFunc posts fn once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a handle to a callback scheduled with [Scheduler.AfterFunc].
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped the timer,
	// false if the callback already ran or the timer was already stopped.
	Stop() bool
}

// Loop is a [Scheduler] backed by an unbounded queue drained by [Loop.Run].
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	logger  *log.Logger
}

// New creates an idle [Loop]. Callbacks posted before [Loop.Run] are kept until it starts.
func New(logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{wake: make(chan struct{}, 1), logger: logger}
}

// Post implements [Scheduler]. It never blocks, so it is safe to call from loop callbacks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc implements [Scheduler].
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) {
				fn()
			}
		})
	})
	return t
}

// Run executes posted callbacks until ctx is done.
//
// A panicking callback is logged and the loop keeps running.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.pending
			l.pending = nil
			l.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.run(fn)
			}
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panicked", "panic", r)
		}
	}()
	fn()
}

// Do posts fn and waits for it to finish, or for ctx to end.
func Do(ctx context.Context, s Scheduler, fn func()) error {
	done := make(chan struct{})
	s.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
}

// Stop implements [Timer]. A timer whose deadline passed but whose callback is still queued
// on the loop is stopped as well.
func (t *loopTimer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.timer.Stop()
	return true
}
