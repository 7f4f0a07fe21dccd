// Package boot implements the boot stage state machine.
//
// A visitor powers on from OFF into the BIOS screen, which advances to the
// bootloader on a timer. The bootloader offers three destinations: the
// DESKTOP, the CYBERWORLD experience and the RESUME viewer; the latter two
// exit back to the bootloader. Skipping from any pre-desktop stage jumps
// straight to the desktop and remembers the choice in the profile's
// preferences, so later sessions start on the desktop.
package boot
