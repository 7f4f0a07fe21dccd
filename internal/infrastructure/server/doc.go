// Package server assembles the desktop service: catalogs, preference
// storage, the session hub and the gin router with its middleware.
package server
