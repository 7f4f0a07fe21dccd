// Package scheduler provides cancellable, owner-scoped timers.
//
// Every timer-owning component (boot controller, notification queue) starts
// its timers through a Group. Closing the Group stops every pending timer and
// suppresses callbacks that were already in flight, so a torn-down component
// is never mutated by a stale timer.
//
// Components:
//   - Clock: time source (Real for production, Fake for tests)
//   - Group: set of timers released together
//
// Example Usage:
//
//	group := scheduler.NewGroup(scheduler.Real())
//	defer group.Close()
//	group.After(2*time.Second, func() { controller.advance() })
package scheduler
