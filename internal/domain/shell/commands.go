package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
)

func cmdHelp(_ context.Context, _ *Shell, _ []string, out *output) {
	out.print("Commands: ls, cd, pwd, cat, open, find, clear, whoami, neofetch, matrix, skills, 3d")
}

func cmdClear(_ context.Context, _ *Shell, _ []string, out *output) {
	out.cleared = true
}

func cmdPwd(_ context.Context, s *Shell, _ []string, out *output) {
	out.print(vfs.Join(s.cwd))
}

func cmdLs(_ context.Context, s *Shell, args []string, out *output) {
	target := vfs.Join(s.cwd)
	if len(args) > 0 {
		target = vfs.Join(s.resolve(args[0]))
	}

	n := s.fs.Resolve(target)
	if n == nil {
		out.errorf("ls: %s: No such file or directory", argOr(args, target))
		return
	}
	if !n.IsDir() {
		out.print(args[0])
		return
	}

	entries, err := s.fs.Entries(target)
	if err != nil {
		out.errorf("ls: %v", err)
		return
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
		if e.Type == vfs.TypeDir {
			names[i] += "/"
		}
	}
	if len(names) > 0 {
		out.print(strings.Join(names, "  "))
	}
}

func cmdCd(_ context.Context, s *Shell, args []string, out *output) {
	if len(args) == 0 {
		out.errorf("cd: missing operand")
		return
	}

	target := args[0]
	if target == ".." {
		// The shell never leaves the top-level directory
		if len(s.cwd) > 1 {
			s.cwd = s.cwd[:len(s.cwd)-1]
		}
		return
	}

	next := s.resolve(target)
	if !s.fs.ResolvePath(next).IsDir() || len(next) == 0 {
		out.errorf("cd: %s: No such directory", target)
		return
	}
	s.cwd = next
}

func cmdCat(_ context.Context, s *Shell, args []string, out *output) {
	if len(args) == 0 {
		out.errorf("cat: missing operand")
		return
	}

	for _, arg := range args {
		n := s.fs.ResolvePath(s.resolve(arg))
		switch {
		case n == nil:
			out.errorf("cat: %s: No such file or directory", arg)
		case n.IsDir():
			out.errorf("cat: %s: Is a directory", arg)
		case !vfs.IsText(n):
			out.errorf("cat: %s: binary file (%s)", arg, vfs.DetectMIME(n))
		default:
			out.print(strings.Split(strings.TrimRight(n.Content, "\n"), "\n")...)
		}
	}
}

func cmdOpen(ctx context.Context, s *Shell, args []string, out *output) {
	if len(args) == 0 {
		out.errorf("open: missing operand")
		return
	}

	p := vfs.Join(s.resolve(args[0]))
	appID, err := s.fs.Open(p)
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		out.errorf("open: %s: No such file or directory", args[0])
		return
	case errors.Is(err, vfs.ErrIsDirectory):
		out.errorf("open: %s: Is a directory", args[0])
		return
	case err != nil:
		out.errorf("open: %s: No application associated", args[0])
		return
	}

	out.print("Opening " + args[0] + "...")
	s.launch(ctx, appID, map[string]any{"file": p}, out)
}

func cmdFind(_ context.Context, s *Shell, args []string, out *output) {
	if len(args) == 0 {
		out.errorf("find: missing pattern")
		return
	}

	pattern := args[0]
	if !strings.HasPrefix(pattern, "/") {
		pattern = strings.TrimSuffix(vfs.Join(s.cwd), "/") + "/" + pattern
	}
	matches, err := s.fs.Glob(pattern)
	if err != nil {
		out.errorf("find: %s: invalid pattern", args[0])
		return
	}
	if len(matches) == 0 {
		out.errorf("find: %s: No matches", args[0])
		return
	}
	out.print(matches...)
}

func cmdWhoami(_ context.Context, _ *Shell, _ []string, out *output) {
	out.print(
		"┌──────────────────────────────┐",
		"│ VISITOR                      │",
		"│ Guest of the NEXUS network   │",
		"│ Clearance: read-only         │",
		"└──────────────────────────────┘",
	)
}

func cmdNeofetch(_ context.Context, _ *Shell, _ []string, out *output) {
	out.print(
		"user@nexus",
		"──────────────",
		"OS: NEXUS Hypervisor",
		"Kernel: 6.0-cyber",
		"Uptime: ∞",
		"Shell: nexus-shell",
		"CPU: Neural Core",
	)
}

func cmdMatrix(_ context.Context, _ *Shell, _ []string, out *output) {
	out.print("Wake up, Neo...", "The Matrix has you...")
}

func launchCommand(appID, banner string) command {
	return func(ctx context.Context, s *Shell, _ []string, out *output) {
		out.print(banner)
		s.launch(ctx, appID, nil, out)
	}
}

func argOr(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
