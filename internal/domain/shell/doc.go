/*
Package shell implements the desktop terminal.

The shell walks the virtual file system from a working directory that starts
at /home/user, keeps a bounded scrollback, and can launch applications
(skills, 3d, open). Errors are printed inline the way a POSIX shell would,
never returned. Clients render scrollback as HTML, so every line passes
through a strict bluemonday policy before it is stored.

Every non-empty command counts toward the terminal achievement.
*/
package shell
