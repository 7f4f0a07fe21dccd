package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
)

var errBoom = errors.New("boom")

func call(b *Breaker, ok bool) error {
	return b.Call(context.Background(), func(context.Context) error {
		if ok {
			return nil
		}
		return errBoom
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool
		expectedState State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"stays closed below threshold", []bool{false, false, true, false}, StateClosed},
		{"opens after consecutive failures", []bool{false, false, false}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", Settings{
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
				Clock:       scheduler.NewFake(time.Unix(0, 0)),
			})

			for _, ok := range tt.requests {
				_ = call(b, ok)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	clock := scheduler.NewFake(time.Unix(0, 0))
	b := New("test", Settings{
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		Clock:       clock,
	})

	require.ErrorIs(t, call(b, false), errBoom)
	require.Equal(t, StateOpen, b.State())

	ran := false
	err := b.Call(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := scheduler.NewFake(time.Unix(0, 0))
	var transitions []string
	b := New("test", Settings{
		MaxRequests: 2,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		Clock: clock,
	})

	_ = call(b, false)
	clock.Advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, call(b, true))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, call(b, true))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := scheduler.NewFake(time.Unix(0, 0))
	b := New("test", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		Clock:       clock,
	})

	_ = call(b, false)
	clock.Advance(time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	_ = call(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := scheduler.NewFake(time.Unix(0, 0))
	b := New("test", Settings{
		Interval:    time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
		Clock:       clock,
	})

	_ = call(b, false)
	_ = call(b, false)
	assert.Equal(t, uint32(2), b.Counts().ConsecutiveFailures)

	clock.Advance(time.Minute)
	_ = call(b, false)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerCancelledContext(t *testing.T) {
	b := New("test", Settings{Clock: scheduler.NewFake(time.Unix(0, 0))})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Call(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Counts().Requests)
}

func TestDo(t *testing.T) {
	b := New("test", Settings{Clock: scheduler.NewFake(time.Unix(0, 0))})

	v, err := Do(context.Background(), b, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		Clock:       scheduler.NewFake(time.Unix(0, 0)),
	})

	assert.Panics(t, func() {
		_ = b.Call(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}
