// Package main is the entry point for the NexusOS desktop service.
//
// The service hosts simulated desktop sessions: a boot sequence, a window
// manager, a terminal, a command palette, notifications and achievements,
// with per-profile preferences persisted in SQLite.
//
// Configuration:
//   - .env file and environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Serve the API (default command)
//	./server serve --port 8000
//
//	# Development mode (colored logs, debug level)
//	./server serve --dev
//
//	# Check the built-in catalogs plus extra manifests
//	./server catalog validate --apps-dir ./apps
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
