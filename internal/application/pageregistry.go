package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// page is one open browser page and the last time it was used.
type page struct {
	browser  *ModelBrowser
	lastSeen time.Time
}

// PageRegistry holds the in-memory state of every open browser page. Each
// full page load opens a new page, so a reload always starts from a fresh
// ModelBrowser. Pages idle longer than the idle timeout are evicted; nothing
// is ever written to storage.
type PageRegistry struct {
	newBrowser  func() *ModelBrowser
	idleTimeout time.Duration
	now         func() time.Time

	mu    sync.Mutex
	pages map[string]*page
}

// PageRegistryOption configures a PageRegistry.
type PageRegistryOption func(*PageRegistry)

// WithPageClock overrides the clock used for idle tracking.
func WithPageClock(now func() time.Time) PageRegistryOption {
	return func(r *PageRegistry) {
		r.now = now
	}
}

// NewPageRegistry creates a registry that builds browsers with newBrowser.
// A non-positive idleTimeout disables eviction.
func NewPageRegistry(newBrowser func() *ModelBrowser, idleTimeout time.Duration, opts ...PageRegistryOption) *PageRegistry {
	r := &PageRegistry{
		newBrowser:  newBrowser,
		idleTimeout: idleTimeout,
		now:         time.Now,
		pages:       make(map[string]*page),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a new page with a fresh ModelBrowser and returns its ID.
func (r *PageRegistry) Open() (string, *ModelBrowser) {
	id := uuid.NewString()
	b := r.newBrowser()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[id] = &page{browser: b, lastSeen: r.now()}

	return id, b
}

// Get returns the browser for the page ID and marks the page as used.
// Returns false if the page is unknown or has been evicted.
func (r *PageRegistry) Get(id string) (*ModelBrowser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pages[id]
	if !ok {
		return nil, false
	}
	p.lastSeen = r.now()
	return p.browser, true
}

// Len returns the number of open pages.
func (r *PageRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep evicts pages idle for longer than the idle timeout and returns how
// many were removed. A page with a fetch in flight is kept.
func (r *PageRegistry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}

	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, p := range r.pages {
		if p.lastSeen.After(cutoff) || p.browser.Loading() {
			continue
		}
		delete(r.pages, id)
		removed++
	}
	return removed
}

// Run sweeps idle pages every interval until ctx is canceled.
func (r *PageRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("page sweeper stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Debug("evicted idle pages", "count", n)
			}
		}
	}
}
