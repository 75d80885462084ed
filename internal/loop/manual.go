package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a [Scheduler] with a virtual clock. Nothing runs until the test calls
// [Manual.Drain] or [Manual.Advance].
//
// Post is safe from any goroutine so code under test may complete network calls in the
// background and hand results back as it would with [Loop].
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	queue  []func()
	timers []*manualTimer
	posted chan struct{}
}

// NewManual creates a [Manual] scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{posted: make(chan struct{}, 1)}
}

type manualTimer struct {
	m       *Manual
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Post implements [Scheduler].
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.posted <- struct{}{}:
	default:
	}
}

// AfterFunc implements [Scheduler].
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Drain runs queued callbacks, including ones they post, until the queue is empty.
// It returns the number of callbacks run.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order and draining the
// queue after each one.
func (m *Manual) Advance(d time.Duration) {
	m.Drain()

	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.compact()
			m.mu.Unlock()
			break
		}
		m.now = next.at
		next.fired = true
		m.mu.Unlock()

		next.fn()
		m.Drain()
	}
}

// DrainUntil drains the queue until cond reports true, waiting for posts from other
// goroutines. It reports false if timeout passes first.
func (m *Manual) DrainUntil(cond func() bool, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		m.Drain()
		if cond() {
			return true
		}
		select {
		case <-m.posted:
		case <-deadline:
			m.Drain()
			return cond()
		}
	}
}

// nextDue must be called with mu held.
func (m *Manual) nextDue(target time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	return due[0]
}

// compact must be called with mu held.
func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.timers = live
}
