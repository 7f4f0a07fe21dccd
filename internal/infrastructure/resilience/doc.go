/*
Package resilience provides a circuit breaker for graceful degradation.

The preference store routes every durable write through a breaker so a
failing database stops being hammered and the store can fall back to memory.

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                               Open

# Usage

	breaker := resilience.New("preferences", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	err := breaker.Call(ctx, func(ctx context.Context) error {
		return backend.Save(ctx, key, blob)
	})

Time comes from a scheduler.Clock so tests can drive the open timeout with
a fake clock.
*/
package resilience
