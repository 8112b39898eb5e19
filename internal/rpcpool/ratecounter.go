package rpcpool

import (
	"sync"
	"time"
)

// selectableFraction keeps headroom below each endpoint's advertised
// capacity: an endpoint stops being selectable at 80% of its per-second cap.
const selectableFraction = 0.8

type rateWindow struct {
	count     int
	lastReset time.Time
}

// RateCounter tracks per-endpoint request counts in one-second windows.
// It is the shared state that prevents over-subscribing a single endpoint
// when many callers hit the pool concurrently.
type RateCounter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

func NewRateCounter() *RateCounter {
	return &RateCounter{
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Allow reports whether url may take another request this second given its
// capacity. It does not record anything; call Record once the endpoint is
// actually chosen.
func (c *RateCounter) Allow(url string, capacity int) bool {
	if capacity <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.windowLocked(url)
	return w.count < int(float64(capacity)*selectableFraction)
}

// Record counts one selection of url in the current window.
func (c *RateCounter) Record(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.windowLocked(url).count++
}

// Usage returns the number of selections of url in the current window.
func (c *RateCounter) Usage(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.windowLocked(url).count
}

// Forget drops the window for url, used when an endpoint is removed.
func (c *RateCounter) Forget(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.windows, url)
}

// windowLocked returns the current window for url, resetting it once a full
// second has elapsed. Must be called with c.mu held.
func (c *RateCounter) windowLocked(url string) *rateWindow {
	now := c.now()
	w, ok := c.windows[url]
	if !ok {
		w = &rateWindow{lastReset: now}
		c.windows[url] = w
		return w
	}
	if now.Sub(w.lastReset) >= time.Second {
		w.count = 0
		w.lastReset = now
	}
	return w
}
