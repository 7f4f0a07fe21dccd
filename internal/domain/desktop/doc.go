// Package desktop implements the window manager of one desktop session.
//
// Each application has at most one window. Windows are kept in creation
// order, which drives the taskbar and the refocus policy, while stacking
// order is derived from focus history: the most recently focused window is
// on top. A non-empty focus always names an open, non-minimized window, and
// every operation re-establishes that before returning.
package desktop
