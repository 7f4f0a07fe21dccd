// Package prefs provides durable per-profile desktop preferences.
//
// A Store holds one profile's preferences in memory and persists the whole
// record after every mutation. The persisted form is a versioned envelope,
// {"version": N, "data": {...}}, encoded with sonic and zstd-compressed
// behind a magic prefix once it grows past a threshold. Decoding overlays
// stored fields onto defaults, so missing fields take default values and
// unknown fields are ignored; registered migrations upgrade older shapes,
// including the legacy browser blob.
//
// Persistence goes through a Backend guarded by a circuit breaker. When the
// backend is unavailable the store keeps working in memory and logs a
// warning; it never fails the caller.
//
// Example Usage:
//
//	mgr := prefs.NewManager(backend, themes, logger)
//	store := mgr.Store(ctx, "guest")
//	store.Update(ctx, func(p *prefs.Preferences) { p.SkipBoot = true })
package prefs
