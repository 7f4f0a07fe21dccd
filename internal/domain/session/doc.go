// Package session bundles one visitor's desktop into a single aggregate and
// hosts every live aggregate in a hub.
//
// A Session owns its boot controller, window manager, notification queue,
// achievement tracker, terminal and overlays. One mutex serializes every
// operation on a session, so each request observes the state left by the
// previous one. Components report changes through listeners that only
// publish events; they never call back into the session, which keeps timer
// callbacks free of the session lock.
//
// The Manager creates and tears down sessions, fans events out to stream
// subscribers and reports statistics.
//
// Example Usage:
//
//	mgr := session.NewManager(deps)
//	s, err := mgr.Create(ctx, "visitor-1")
//	_ = s.Skip(ctx)
//	_, err = s.Launch(ctx, "terminal", nil)
package session
