package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/utils"
)

// DefaultScrollback caps the retained lines
const DefaultScrollback = 500

// ErrInvalidCommand is returned for input lines that fail validation
var ErrInvalidCommand = errors.New("invalid command")

const (
	user = "user"
	host = "nexus"
)

var home = []string{"home", "user"}

// LineKind classifies a scrollback line
type LineKind string

const (
	LineInput  LineKind = "input"
	LineOutput LineKind = "output"
	LineError  LineKind = "error"
)

// Line is one rendered scrollback line
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// Result describes one executed command
type Result struct {
	Lines    []Line `json:"lines"`
	Cleared  bool   `json:"cleared,omitempty"`
	Launched string `json:"launched,omitempty"`
	Cwd      string `json:"cwd"`
}

// Launcher opens applications on behalf of the shell
type Launcher interface {
	Launch(ctx context.Context, appID string, payload map[string]any) (types.Window, error)
}

// Recorder counts executed commands
type Recorder interface {
	RecordEvent(ctx context.Context, ev achievement.Event) []achievement.Definition
}

// Options configures a Shell
type Options struct {
	Scrollback int
	Metrics    *monitoring.Metrics
}

// Shell is one terminal's state
type Shell struct {
	fs       *vfs.FS
	launcher Launcher
	recorder Recorder
	policy   *bluemonday.Policy
	limit    int
	metrics  *monitoring.Metrics

	mu         sync.Mutex
	cwd        []string
	scrollback []Line
}

type command func(ctx context.Context, s *Shell, args []string, out *output)

var commands = map[string]command{
	"help":     cmdHelp,
	"clear":    cmdClear,
	"ls":       cmdLs,
	"cd":       cmdCd,
	"pwd":      cmdPwd,
	"cat":      cmdCat,
	"open":     cmdOpen,
	"find":     cmdFind,
	"whoami":   cmdWhoami,
	"neofetch": cmdNeofetch,
	"matrix":   cmdMatrix,
	"skills":   launchCommand("skills", "Launching Skills Orbit..."),
	"3d":       launchCommand("terminal3d", "Switching to 3D mode..."),
}

// New creates a shell in the home directory
func New(fs *vfs.FS, launcher Launcher, recorder Recorder, opts Options) *Shell {
	if opts.Scrollback <= 0 {
		opts.Scrollback = DefaultScrollback
	}
	return &Shell{
		fs:       fs,
		launcher: launcher,
		recorder: recorder,
		policy:   bluemonday.StrictPolicy(),
		limit:    opts.Scrollback,
		metrics:  opts.Metrics,
		cwd:      append([]string(nil), home...),
	}
}

// Cwd returns the working directory
func (s *Shell) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return vfs.Join(s.cwd)
}

// Prompt returns the prompt for the working directory
func (s *Shell) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt()
}

// Scrollback returns a copy of the retained lines
func (s *Shell) Scrollback() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.scrollback...)
}

// Execute runs one input line
func (s *Shell) Execute(ctx context.Context, input string) (Result, error) {
	if err := utils.ValidateCommand(input); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line := strings.TrimSpace(input)
	out := &output{}
	out.add(LineInput, s.prompt()+" "+line)

	fields := strings.Fields(line)
	if len(fields) > 0 {
		name := strings.ToLower(fields[0])
		if cmd, ok := commands[name]; ok {
			s.metrics.RecordCommand(name)
			cmd(ctx, s, fields[1:], out)
		} else {
			s.metrics.RecordCommand("unknown")
			out.errorf("bash: %s: command not found", name)
		}
		if s.recorder != nil {
			s.recorder.RecordEvent(ctx, achievement.Event{Kind: achievement.EventCommand})
		}
	}

	for i := range out.lines {
		out.lines[i].Text = s.policy.Sanitize(out.lines[i].Text)
	}
	if out.cleared {
		s.scrollback = nil
	} else {
		s.scrollback = append(s.scrollback, out.lines...)
		if over := len(s.scrollback) - s.limit; over > 0 {
			s.scrollback = append([]Line(nil), s.scrollback[over:]...)
		}
	}

	return Result{
		Lines:    out.lines,
		Cleared:  out.cleared,
		Launched: out.launched,
		Cwd:      vfs.Join(s.cwd),
	}, nil
}

// prompt must be called with s.mu held
func (s *Shell) prompt() string {
	return fmt.Sprintf("%s@%s:%s$", user, host, vfs.Join(s.cwd))
}

// resolve turns an argument into absolute segments. Must be called with s.mu held.
func (s *Shell) resolve(arg string) []string {
	if strings.HasPrefix(arg, "/") {
		return vfs.ParsePath(arg)
	}
	return vfs.ParsePath(vfs.Join(s.cwd) + "/" + arg)
}

func (s *Shell) launch(ctx context.Context, appID string, payload map[string]any, out *output) {
	if s.launcher == nil {
		out.errorf("%s: no display available", appID)
		return
	}
	if _, err := s.launcher.Launch(ctx, appID, payload); err != nil {
		out.errorf("%s: %v", appID, err)
		return
	}
	out.launched = appID
}

type output struct {
	lines    []Line
	cleared  bool
	launched string
}

func (o *output) add(kind LineKind, text string) {
	o.lines = append(o.lines, Line{Kind: kind, Text: text})
}

func (o *output) print(lines ...string) {
	for _, l := range lines {
		o.add(LineOutput, l)
	}
}

func (o *output) errorf(format string, args ...any) {
	o.add(LineError, fmt.Sprintf(format, args...))
}
