package preview

import (
	"time"

	"github.com/banshee-data/housing.layout/internal/housing/wire"
	"github.com/banshee-data/housing.layout/internal/timeutil"
)

// DefaultWindowSpan is how long visited pages stay visited. The host
// issues one load call per page in quick succession, so once this much
// time passes the next call belongs to a new load and starts over.
const DefaultWindowSpan = 5 * time.Second

// Window tracks which pages of a stored layout have been synthesised in
// the current load. It also serves as the capture expiry clock: capture
// and preview share the same reset timestamp.
type Window struct {
	clock     timeutil.Clock
	span      time.Duration
	visited   map[int]struct{}
	lastReset time.Time
}

// NewWindow creates a window whose reset timestamp starts at clock.Now().
// A span of zero uses DefaultWindowSpan.
func NewWindow(clock timeutil.Clock, span time.Duration) *Window {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if span <= 0 {
		span = DefaultWindowSpan
	}
	return &Window{
		clock:     clock,
		span:      span,
		visited:   make(map[int]struct{}),
		lastReset: clock.Now(),
	}
}

// Reset forgets visited pages and restarts the span from now.
func (w *Window) Reset() {
	clear(w.visited)
	w.lastReset = w.clock.Now()
	tracef("window reset at %s", w.lastReset.Format(time.RFC3339Nano))
}

// Expire resets the window when more than the span has elapsed since the
// last reset, and reports whether it did.
func (w *Window) Expire() bool {
	if w.clock.Since(w.lastReset) <= w.span {
		return false
	}
	w.Reset()
	return true
}

// Next applies the expiry rule, then claims and returns the smallest page
// index not yet visited.
func (w *Window) Next() int {
	w.Expire()
	page := 0
	for {
		if _, seen := w.visited[page]; !seen {
			break
		}
		page++
	}
	w.visited[page] = struct{}{}
	diagf("page %d selected (%d visited)", page, len(w.visited))
	return page
}

// Visited reports whether page has been claimed in the current window.
func (w *Window) Visited(page int) bool {
	_, ok := w.visited[page]
	return ok
}

// PageBounds returns the half-open range of stored-list indices covered by
// page for a list of n records. Pages past the end are empty.
func PageBounds(page, n int) (start, end int) {
	start = page * wire.SLOTS_PER_PAGE
	if start > n {
		start = n
	}
	end = start + wire.SLOTS_PER_PAGE
	if end > n {
		end = n
	}
	return start, end
}

// PageCount is the number of pages needed to cover n records.
func PageCount(n int) int {
	return (n + wire.SLOTS_PER_PAGE - 1) / wire.SLOTS_PER_PAGE
}
