// Package types provides shared data structures for the desktop backend.
//
// These are the serializable projections handed to API clients and event
// stream subscribers. Domain packages keep their own richer records and
// project into these types at the boundary.
//
// Core Types:
//   - Window: One open application window as rendered
//   - TaskbarItem, DockItem: Desktop chrome projections
//   - Notification: Transient user-visible message
//   - Event: Frame published on the session event stream
//
// Request Types:
//   - LaunchRequest, KeyRequest, CommandRequest and friends: API bodies
//   - WSMessage: Client-to-server stream message
package types
