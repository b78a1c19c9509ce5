package ratelimit

import (
	"sync"
	"time"

	"github.com/mcoot/warduel/internal/dependencies/clock"
)

// Limiter is a fixed-window rate limiter keyed by an arbitrary comparable key.
// Each key may perform limit actions per window; the count resets once a
// full window has elapsed since the window opened.
type Limiter[K comparable] struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	mu      sync.Mutex
	windows map[K]*fixedWindow
}

type fixedWindow struct {
	opened time.Time
	count  int
}

// New creates a Limiter allowing limit actions per window.
// A limit of zero or less disables limiting.
func New[K comparable](limit int, window time.Duration, clk clock.Clock) *Limiter[K] {
	return &Limiter[K]{
		limit:   limit,
		window:  window,
		clock:   clk,
		windows: make(map[K]*fixedWindow),
	}
}

// Allow records one action for key and reports whether it is within the limit
func (l *Limiter[K]) Allow(key K) bool {
	if l.limit <= 0 {
		return true
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.opened) >= l.window {
		l.windows[key] = &fixedWindow{opened: now, count: 1}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Forget drops all state for key
func (l *Limiter[K]) Forget(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Len returns the number of tracked keys
func (l *Limiter[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
