package coordinator

import (
	"context"
	"sync"
)

// Scheduler separates work that may block (collaborator calls) from work that
// touches navigation state, bus subscriptions or screen state, which must all
// run on the single UI goroutine.
type Scheduler interface {
	// Background runs fn off the UI goroutine.
	Background(fn func())
	// Main queues fn to run on the UI goroutine.
	Main(fn func())
}

// Inline runs everything immediately on the calling goroutine. It is meant
// for tests and one-shot CLI commands where the caller is the UI goroutine.
type Inline struct{}

func (Inline) Background(fn func()) { fn() }
func (Inline) Main(fn func())       { fn() }

// Loop runs Background work on goroutines and queues Main work until the UI
// loop drains it. The queue is unbounded so Main never blocks, even when it
// is called from the UI goroutine itself.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	ready   chan struct{}
	done    chan struct{}
	closing bool
	closed  bool
	workers sync.WaitGroup
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Background starts fn on a new goroutine. Once Close starts it is dropped.
func (l *Loop) Background(fn func()) {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return
	}
	l.workers.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.workers.Done()
		fn()
	}()
}

// Main queues fn and wakes the UI loop. After Close it is dropped.
func (l *Loop) Main(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled whenever Main work has been queued.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// Done is closed by Close.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Wait blocks until Main work is queued, the loop closes or ctx ends. It
// reports whether there is work to drain.
func (l *Loop) Wait(ctx context.Context) bool {
	select {
	case <-l.ready:
		return true
	case <-l.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Drain runs queued Main work on the calling goroutine, including work queued
// by the functions it runs, and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// Close stops accepting Background work, waits for what is running, then
// drops anything queued for Main later. Work already queued for Main is left
// for a final Drain.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()

	l.workers.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}

var (
	_ Scheduler = Inline{}
	_ Scheduler = (*Loop)(nil)
)
