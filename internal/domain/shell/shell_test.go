package shell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

type launchCall struct {
	appID   string
	payload map[string]any
}

type fakeLauncher struct {
	calls []launchCall
	err   error
}

func (f *fakeLauncher) Launch(_ context.Context, appID string, payload map[string]any) (types.Window, error) {
	if f.err != nil {
		return types.Window{}, f.err
	}
	f.calls = append(f.calls, launchCall{appID, payload})
	return types.Window{ID: appID}, nil
}

type countingRecorder struct {
	commands int
}

func (c *countingRecorder) RecordEvent(_ context.Context, ev achievement.Event) []achievement.Definition {
	if ev.Kind == achievement.EventCommand {
		c.commands++
	}
	return nil
}

func newShell(t *testing.T) (*Shell, *fakeLauncher, *countingRecorder) {
	t.Helper()
	fs, err := vfs.Load()
	require.NoError(t, err)
	launcher := &fakeLauncher{}
	recorder := &countingRecorder{}
	return New(fs, launcher, recorder, Options{}), launcher, recorder
}

func run(t *testing.T, s *Shell, input string) Result {
	t.Helper()
	res, err := s.Execute(context.Background(), input)
	require.NoError(t, err)
	return res
}

func texts(res Result) []string {
	out := make([]string, 0, len(res.Lines))
	for _, l := range res.Lines[1:] {
		out = append(out, l.Text)
	}
	return out
}

func TestPromptEcho(t *testing.T) {
	s, _, _ := newShell(t)

	res := run(t, s, "  pwd  ")
	require.Len(t, res.Lines, 2)
	assert.Equal(t, Line{Kind: LineInput, Text: "user@nexus:/home/user$ pwd"}, res.Lines[0])
	assert.Equal(t, []string{"/home/user"}, texts(res))
	assert.Equal(t, "/home/user", res.Cwd)
}

func TestHelp(t *testing.T) {
	s, _, _ := newShell(t)
	out := texts(run(t, s, "help"))
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0], "Commands: ls, cd"))
}

func TestLs(t *testing.T) {
	s, _, _ := newShell(t)

	assert.Equal(t, []string{"documents/  projects/  resume.pdf"}, texts(run(t, s, "ls")))
	assert.Equal(t, []string{"ecoscan_web  skills.orbit"}, texts(run(t, s, "ls projects")))
	assert.Equal(t, []string{"resume.pdf"}, texts(run(t, s, "ls resume.pdf")))

	res := run(t, s, "ls nowhere")
	assert.Equal(t, LineError, res.Lines[1].Kind)
	assert.Equal(t, "ls: nowhere: No such file or directory", res.Lines[1].Text)
}

func TestCd(t *testing.T) {
	s, _, _ := newShell(t)

	res := run(t, s, "cd")
	assert.Equal(t, []string{"cd: missing operand"}, texts(res))

	res = run(t, s, "cd resume.pdf")
	assert.Equal(t, []string{"cd: resume.pdf: No such directory"}, texts(res))

	res = run(t, s, "cd ghosts")
	assert.Equal(t, []string{"cd: ghosts: No such directory"}, texts(res))
	assert.Equal(t, "/home/user", s.Cwd())

	run(t, s, "cd projects")
	assert.Equal(t, "/home/user/projects", s.Cwd())
	assert.Equal(t, "user@nexus:/home/user/projects$", s.Prompt())

	run(t, s, "cd /home/user/documents")
	assert.Equal(t, "/home/user/documents", s.Cwd())

	run(t, s, "cd ..")
	run(t, s, "cd ..")
	assert.Equal(t, "/home", s.Cwd())
	run(t, s, "cd ..")
	assert.Equal(t, "/home", s.Cwd(), "never leaves the top-level directory")
}

func TestCat(t *testing.T) {
	s, _, _ := newShell(t)

	out := texts(run(t, s, "cat documents/readme.txt"))
	require.NotEmpty(t, out)
	assert.Equal(t, "NEXUS HYPERVISOR", out[0])

	assert.Equal(t, []string{"cat: documents: Is a directory"}, texts(run(t, s, "cat documents")))
	assert.Equal(t, []string{"cat: nope: No such file or directory"}, texts(run(t, s, "cat nope")))
	assert.Equal(t, []string{"cat: missing operand"}, texts(run(t, s, "cat")))

	out = texts(run(t, s, "cat resume.pdf"))
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "binary file (application/pdf)")
}

func TestOpenLaunchesTarget(t *testing.T) {
	s, launcher, _ := newShell(t)

	res := run(t, s, "open resume.pdf")
	assert.Equal(t, "resume", res.Launched)
	require.Len(t, launcher.calls, 1)
	assert.Equal(t, "resume", launcher.calls[0].appID)
	assert.Equal(t, map[string]any{"file": "/home/user/resume.pdf"}, launcher.calls[0].payload)

	res = run(t, s, "open projects/ecoscan_web")
	assert.Equal(t, "ecoscan", res.Launched)

	assert.Equal(t, []string{"open: documents/readme.txt: No application associated"}, texts(run(t, s, "open documents/readme.txt")))
	assert.Equal(t, []string{"open: projects: Is a directory"}, texts(run(t, s, "open projects")))
}

func TestLaunchCommands(t *testing.T) {
	s, launcher, _ := newShell(t)

	res := run(t, s, "skills")
	assert.Equal(t, []string{"Launching Skills Orbit..."}, texts(res))
	assert.Equal(t, "skills", res.Launched)

	res = run(t, s, "3D")
	assert.Equal(t, []string{"Switching to 3D mode..."}, texts(res))
	assert.Equal(t, "terminal3d", res.Launched)
	assert.Len(t, launcher.calls, 2)

	launcher.err = errors.New("not on desktop")
	res = run(t, s, "skills")
	assert.Empty(t, res.Launched)
	assert.Equal(t, LineError, res.Lines[2].Kind)
	assert.Equal(t, "skills: not on desktop", res.Lines[2].Text)
}

func TestFind(t *testing.T) {
	s, _, _ := newShell(t)

	out := texts(run(t, s, "find **/*.txt"))
	assert.Equal(t, []string{"/home/user/documents/readme.txt"}, out)

	out = texts(run(t, s, "find /home/user/projects/*"))
	assert.Equal(t, []string{"/home/user/projects/ecoscan_web", "/home/user/projects/skills.orbit"}, out)

	assert.Equal(t, []string{"find: *.zip: No matches"}, texts(run(t, s, "find *.zip")))
	assert.Equal(t, []string{"find: [: invalid pattern"}, texts(run(t, s, "find [")))
}

func TestUnknownCommandAndCounting(t *testing.T) {
	s, _, recorder := newShell(t)

	assert.Equal(t, []string{"bash: sudo: command not found"}, texts(run(t, s, "sudo rm -rf /")))
	run(t, s, "")
	run(t, s, "   ")
	run(t, s, "matrix")

	assert.Equal(t, 2, recorder.commands)
}

func TestOutputIsSanitized(t *testing.T) {
	s, _, _ := newShell(t)

	res := run(t, s, `<img src=x onerror=alert(1)>`)
	for _, l := range res.Lines {
		assert.NotContains(t, l.Text, "<img")
		assert.NotContains(t, l.Text, "onerror")
	}
}

func TestClearAndScrollbackLimit(t *testing.T) {
	fs, err := vfs.Load()
	require.NoError(t, err)
	s := New(fs, nil, nil, Options{Scrollback: 5})

	for i := 0; i < 4; i++ {
		run(t, s, "pwd")
	}
	lines := s.Scrollback()
	assert.Len(t, lines, 5)
	assert.Equal(t, "/home/user", lines[4].Text)

	res := run(t, s, "clear")
	assert.True(t, res.Cleared)
	assert.Empty(t, s.Scrollback())

	res = run(t, s, "skills")
	assert.Equal(t, "skills: no display available", res.Lines[2].Text)
}

func TestCommandTooLong(t *testing.T) {
	s, _, _ := newShell(t)
	_, err := s.Execute(context.Background(), strings.Repeat("a", 2000))
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = s.Execute(context.Background(), "cat \x00")
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Empty(t, s.Scrollback())
}
