// Package notify provides the per-session notification queue.
//
// Notifications are kept in insertion order. Each one with a non-zero
// duration gets an expiry timer from the queue's scheduler group; dismissing
// it cancels the timer and closing the queue cancels them all.
package notify

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

var (
	ErrClosed      = errors.New("notification queue closed")
	ErrInvalidKind = errors.New("invalid notification kind")
)

// UseDefaultDuration asks Push to apply the queue's default duration
const UseDefaultDuration int64 = -1

const (
	DefaultDuration  = 5 * time.Second
	DefaultMaxQueued = 20
)

// Listener observes queue changes. Calls are made without the queue lock
// held, possibly from a timer goroutine.
type Listener interface {
	NotificationAdded(n types.Notification)
	NotificationDismissed(id string, expired bool)
}

// Options configures a Queue
type Options struct {
	Clock           scheduler.Clock
	DefaultDuration time.Duration
	MaxQueued       int
	Listener        Listener
}

type item struct {
	n      types.Notification
	cancel func() bool
}

// Queue is an ordered, self-expiring list of notifications
type Queue struct {
	mu       sync.Mutex
	items    []item
	group    *scheduler.Group
	duration time.Duration
	max      int
	listener Listener
}

// NewQueue creates an empty queue
func NewQueue(opts Options) *Queue {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultDuration
	}
	if opts.MaxQueued <= 0 {
		opts.MaxQueued = DefaultMaxQueued
	}
	return &Queue{
		group:    scheduler.NewGroup(opts.Clock),
		duration: opts.DefaultDuration,
		max:      opts.MaxQueued,
		listener: opts.Listener,
	}
}

// Push enqueues n, assigning its id and creation time. A DurationMs of
// UseDefaultDuration takes the queue default and zero makes it sticky. When
// the queue is full the oldest notification is evicted.
func (q *Queue) Push(n types.Notification) (types.Notification, error) {
	if n.Kind == "" {
		n.Kind = types.NotificationInfo
	}
	if !n.Kind.Valid() {
		return types.Notification{}, fmt.Errorf("%w: %q", ErrInvalidKind, n.Kind)
	}
	if n.DurationMs < 0 {
		n.DurationMs = q.duration.Milliseconds()
	}

	q.mu.Lock()
	if q.group.Closed() {
		q.mu.Unlock()
		return types.Notification{}, ErrClosed
	}

	n.ID = id.NewNotificationID().String()
	n.CreatedAt = q.group.Clock().Now()

	var evicted []string
	for len(q.items) >= q.max {
		evicted = append(evicted, q.removeAt(0))
	}

	it := item{n: n}
	if !n.Sticky() {
		nid := n.ID
		it.cancel = q.group.After(time.Duration(n.DurationMs)*time.Millisecond, func() {
			q.expire(nid)
		})
	}
	q.items = append(q.items, it)
	q.mu.Unlock()

	if q.listener != nil {
		for _, eid := range evicted {
			q.listener.NotificationDismissed(eid, false)
		}
		q.listener.NotificationAdded(n)
	}
	return n, nil
}

// Dismiss removes a notification and cancels its timer
func (q *Queue) Dismiss(nid string) bool {
	q.mu.Lock()
	i := q.indexOf(nid)
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	q.removeAt(i)
	q.mu.Unlock()

	if q.listener != nil {
		q.listener.NotificationDismissed(nid, false)
	}
	return true
}

func (q *Queue) expire(nid string) {
	q.mu.Lock()
	i := q.indexOf(nid)
	if i < 0 {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	q.mu.Unlock()

	if q.listener != nil {
		q.listener.NotificationDismissed(nid, true)
	}
}

// List returns the queued notifications in insertion order
func (q *Queue) List() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]types.Notification, len(q.items))
	for i, it := range q.items {
		out[i] = it.n
	}
	return out
}

// Len returns the number of queued notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the number of running expiry timers
func (q *Queue) Pending() int {
	return q.group.Pending()
}

// Close cancels every expiry timer. Queued notifications stay listed but
// no longer expire, and further pushes fail.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.group.Close()
}

// removeAt must be called with q.mu held
func (q *Queue) removeAt(i int) string {
	it := q.items[i]
	if it.cancel != nil {
		it.cancel()
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	return it.n.ID
}

func (q *Queue) indexOf(nid string) int {
	for i, it := range q.items {
		if it.n.ID == nid {
			return i
		}
	}
	return -1
}
