// Package quota tracks how many more records a job may persist.
package quota

import (
	"errors"
	"sync"
)

// ErrExceeded signals that the row quota is used up. It is a stop signal for
// the collection loop, not a failure.
var ErrExceeded = errors.New("maximum rows exceeded")

// Guard counts down the remaining quota. A nil limit means unlimited.
type Guard struct {
	mu        sync.Mutex
	limit     *int64
	remaining int64
}

// NewGuard creates a Guard. A nil limit disables the quota.
func NewGuard(limit *int64) *Guard {
	g := &Guard{}
	if limit != nil {
		l := *limit
		g.limit = &l
		g.remaining = l
	}
	return g
}

// Reserve asks for one slot before a record is accepted. It fails only when
// the quota was already exhausted, in which case the record must be dropped.
func (g *Guard) Reserve() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.limit == nil {
		return nil
	}
	if g.remaining <= 0 {
		return ErrExceeded
	}
	g.remaining--
	return nil
}

// Exhausted reports whether no slots are left. Callers check it right after
// a successful Reserve to learn that the accepted record was the last one.
func (g *Guard) Exhausted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit != nil && g.remaining <= 0
}

// Limit returns the configured maximum and whether one is set.
func (g *Guard) Limit() (int64, bool) {
	if g.limit == nil {
		return 0, false
	}
	return *g.limit, true
}

// Remaining returns the slots left, or -1 when unlimited.
func (g *Guard) Remaining() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.limit == nil {
		return -1
	}
	return g.remaining
}
