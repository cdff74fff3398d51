package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
)

type window struct {
	start time.Time
	count int
}

// Memory is a fixed-window counter held in process memory.
//
// Expired windows are swept lazily during Allow, at most once per window, so
// no background goroutine is needed.
type Memory struct {
	mu        sync.Mutex
	clock     clock.Clocker
	max       int
	window    time.Duration
	windows   map[string]*window
	lastSweep time.Time
}

// NewMemory returns an in-memory limiter allowing max hits per window.
func NewMemory(max int, win time.Duration, clk clock.Clocker) *Memory {
	return &Memory{
		clock:   clk,
		max:     max,
		window:  win,
		windows: make(map[string]*window),
	}
}

// Allow records one hit for key.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	w, ok := m.windows[key]
	if !ok || !now.Before(w.start.Add(m.window)) {
		w = &window{start: now}
		m.windows[key] = w
	}
	w.count++

	return newResult(w.count, m.max, w.start.Add(m.window).Sub(now)), nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Close drops every counter.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = make(map[string]*window)
	return nil
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now

	for key, w := range m.windows {
		if !now.Before(w.start.Add(m.window)) {
			delete(m.windows, key)
		}
	}
}
