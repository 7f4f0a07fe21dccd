// Package registry provides the static application catalog for the desktop.
//
// The registry maps an application id to its display metadata and the
// component the window manager mounts for it. It is loaded once at startup
// from an embedded YAML catalog, optionally extended with manifests seeded
// from a directory, and is read-only afterwards.
//
// Components:
//   - Manager: Catalog lookup (Resolve, List) and startup validation
//   - Seeder: Loads extra *.yaml manifests from disk with fastwalk
//   - Component: Polymorphic mountable view with a closed set of variants
//
// Every id referenced by the desktop icons, dock, palette and file system
// launch targets must resolve; Validate reports the first gap as a
// configuration error that aborts startup.
//
// Example Usage:
//
//	reg, err := registry.Load()
//	entry, err := reg.Resolve("terminal")
//	view := entry.Component.Mount(registry.MountContext{AppID: entry.ID})
package registry
