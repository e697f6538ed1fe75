// Package lifecycle ties subscriptions and async callbacks to the lifetime of
// the screen that created them.
package lifecycle

import "sync"

// Releaser is anything that must be let go when its owner is destroyed.
// *events.Subscription satisfies it.
type Releaser interface {
	Release()
}

// ReleaseFunc adapts a plain function to Releaser.
type ReleaseFunc func()

// Release calls f.
func (f ReleaseFunc) Release() { f() }

// Scope is the lifetime of one screen.
type Scope struct {
	mu      sync.Mutex
	closed  bool
	tracked []Releaser
}

// NewScope returns an open scope.
func NewScope() *Scope {
	return &Scope{}
}

// Track attaches r to the scope. If the scope is already closed, r is
// released immediately.
func (s *Scope) Track(r Releaser) {
	if r == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		r.Release()
		return
	}
	s.tracked = append(s.tracked, r)
	s.mu.Unlock()
}

// OnClose registers fn to run once when the scope closes.
func (s *Scope) OnClose(fn func()) {
	s.Track(ReleaseFunc(fn))
}

// Alive reports whether the scope is still open.
func (s *Scope) Alive() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close releases everything tracked, in reverse order of tracking. Only the
// first call has any effect.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tracked := s.tracked
	s.tracked = nil
	s.mu.Unlock()

	for i := len(tracked) - 1; i >= 0; i-- {
		tracked[i].Release()
	}
}

// Len returns how many items are currently tracked.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

// Guard wraps fn so that it is dropped once the scope has closed. Use it for
// completions that may arrive after the screen is gone.
func Guard[T any](s *Scope, fn func(T)) func(T) {
	return func(v T) {
		if !s.Alive() || fn == nil {
			return
		}
		fn(v)
	}
}

// Guard2 is Guard for two-argument completions such as func(value, error).
func Guard2[A, B any](s *Scope, fn func(A, B)) func(A, B) {
	return func(a A, b B) {
		if !s.Alive() || fn == nil {
			return
		}
		fn(a, b)
	}
}
