// Package vfs provides the static, read-only virtual file system.
//
// The tree is loaded once from an embedded YAML document and never mutated.
// Lookups return nil rather than an error when a segment is missing or a
// file is traversed as if it were a directory, so callers can turn misses
// into user-visible messages.
//
// Features:
//   - Segment and string path resolution with "." and ".." handling
//   - Sorted directory listings with content type detection (mimetype)
//   - Glob matching across the whole tree (doublestar)
//   - File open resolution to an application launch target
package vfs
