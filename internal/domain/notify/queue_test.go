package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu        sync.Mutex
	added     []string
	dismissed []string
	expired   []string
}

func (r *recorder) NotificationAdded(n types.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, n.Title)
}

func (r *recorder) NotificationDismissed(nid string, expired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if expired {
		r.expired = append(r.expired, nid)
	} else {
		r.dismissed = append(r.dismissed, nid)
	}
}

func newQueue(t *testing.T) (*Queue, *scheduler.Fake, *recorder) {
	t.Helper()
	clock := scheduler.NewFake(time.Unix(1000, 0))
	rec := &recorder{}
	q := NewQueue(Options{Clock: clock, Listener: rec})
	t.Cleanup(q.Close)
	return q, clock, rec
}

func push(t *testing.T, q *Queue, title string, durationMs int64) types.Notification {
	t.Helper()
	n, err := q.Push(types.Notification{Title: title, DurationMs: durationMs})
	require.NoError(t, err)
	return n
}

func TestPushAssignsIdentity(t *testing.T) {
	q, _, rec := newQueue(t)

	n := push(t, q, "hello", UseDefaultDuration)
	assert.True(t, id.IsValid(n.ID))
	assert.Equal(t, types.NotificationInfo, n.Kind)
	assert.Equal(t, int64(5000), n.DurationMs)
	assert.Equal(t, time.Unix(1000, 0), n.CreatedAt)
	assert.Equal(t, []string{"hello"}, rec.added)
}

func TestInsertionOrder(t *testing.T) {
	q, _, _ := newQueue(t)
	push(t, q, "a", 0)
	push(t, q, "b", 0)
	push(t, q, "c", 0)

	var titles []string
	for _, n := range q.List() {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"a", "b", "c"}, titles)
}

func TestExpiry(t *testing.T) {
	q, clock, rec := newQueue(t)

	short := push(t, q, "short", 1000)
	push(t, q, "default", UseDefaultDuration)
	push(t, q, "sticky", 0)
	assert.Equal(t, 2, q.Pending())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 3, q.Len())

	clock.Advance(time.Millisecond)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []string{short.ID}, rec.expired)

	clock.Advance(time.Hour)
	require.Equal(t, 1, q.Len())
	assert.Equal(t, "sticky", q.List()[0].Title)
	assert.Zero(t, q.Pending())
}

func TestDismissCancelsTimer(t *testing.T) {
	q, clock, rec := newQueue(t)

	n := push(t, q, "x", 1000)
	assert.True(t, q.Dismiss(n.ID))
	assert.False(t, q.Dismiss(n.ID))
	assert.Zero(t, q.Pending())

	clock.Advance(time.Second)
	assert.Empty(t, rec.expired)
	assert.Equal(t, []string{n.ID}, rec.dismissed)
}

func TestCapacityEvictsOldest(t *testing.T) {
	clock := scheduler.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	q := NewQueue(Options{Clock: clock, Listener: rec, MaxQueued: 2})
	defer q.Close()

	first := push(t, q, "1", 1000)
	push(t, q, "2", 1000)
	push(t, q, "3", 1000)

	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].Title)
	assert.Equal(t, []string{first.ID}, rec.dismissed)
	assert.Equal(t, 2, q.Pending())
}

func TestInvalidKind(t *testing.T) {
	q, _, _ := newQueue(t)
	_, err := q.Push(types.Notification{Kind: "shout", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestCloseReleasesTimers(t *testing.T) {
	q, clock, rec := newQueue(t)
	push(t, q, "a", 1000)
	push(t, q, "b", 2000)

	q.Close()
	assert.Zero(t, q.Pending())
	assert.Zero(t, clock.Waiting())

	clock.Advance(time.Hour)
	assert.Empty(t, rec.expired)

	_, err := q.Push(types.Notification{Title: "late"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRealClockExpiry(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(Options{Listener: rec})
	defer q.Close()

	push(t, q, "fast", 10)
	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}
