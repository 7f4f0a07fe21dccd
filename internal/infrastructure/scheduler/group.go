package scheduler

import (
	"sync"
	"time"
)

// Group owns a set of timers and releases all of them on Close.
type Group struct {
	clock Clock

	mu     sync.Mutex
	timers map[uint64]Timer // Protected by mu
	nextID uint64           // Protected by mu
	closed bool             // Protected by mu
}

// NewGroup creates an empty timer group on the given clock
func NewGroup(clock Clock) *Group {
	if clock == nil {
		clock = Real()
	}
	return &Group{
		clock:  clock,
		timers: make(map[uint64]Timer),
	}
}

// Clock returns the group's time source
func (g *Group) Clock() Clock {
	return g.clock
}

// After schedules f to run once after d. The returned cancel func stops the
// timer and reports whether it was still pending. Scheduling on a closed
// group is a no-op.
func (g *Group) After(d time.Duration, f func()) (cancel func() bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return func() bool { return false }
	}

	id := g.nextID
	g.nextID++

	timer := g.clock.AfterFunc(d, func() {
		g.mu.Lock()
		_, pending := g.timers[id]
		delete(g.timers, id)
		closed := g.closed
		g.mu.Unlock()

		if !pending || closed {
			return
		}
		f()
	})
	g.timers[id] = timer

	return func() bool {
		g.mu.Lock()
		t, ok := g.timers[id]
		delete(g.timers, id)
		g.mu.Unlock()

		if !ok {
			return false
		}
		t.Stop()
		return true
	}
}

// Pending returns the number of timers that have neither fired nor been cancelled
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}

// Close stops every pending timer. Safe to call more than once.
func (g *Group) Close() {
	g.mu.Lock()
	timers := g.timers
	g.timers = make(map[uint64]Timer)
	g.closed = true
	g.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
}

// Closed reports whether Close has been called
func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
