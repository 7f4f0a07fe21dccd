package vfs

import (
	_ "embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
)

var (
	ErrNotFound      = errors.New("no such file or directory")
	ErrIsDirectory   = errors.New("is a directory")
	ErrNotDirectory  = errors.New("not a directory")
	ErrNotLaunchable = errors.New("no application associated with file")
)

//go:embed tree.yaml
var defaultTree []byte

// NodeType distinguishes directories from files
type NodeType string

const (
	TypeDir  NodeType = "dir"
	TypeFile NodeType = "file"
)

// File kinds with launch semantics
const (
	KindApp  = "app"
	KindPDF  = "pdf"
	KindText = "text"
)

// Node is a directory or a file
type Node struct {
	Type         NodeType         `yaml:"type"`
	FileKind     string           `yaml:"file_kind"`
	LaunchTarget string           `yaml:"launch_target"`
	Content      string           `yaml:"content"`
	Children     map[string]*Node `yaml:"children"`
}

// IsDir reports whether n is a directory
func (n *Node) IsDir() bool {
	return n != nil && n.Type == TypeDir
}

// Entry is one row of a directory listing
type Entry struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Type         NodeType `json:"type"`
	FileKind     string   `json:"file_kind,omitempty"`
	LaunchTarget string   `json:"launch_target,omitempty"`
	MIME         string   `json:"mime,omitempty"`
	Size         int      `json:"size"`
}

// FS is an immutable file tree
type FS struct {
	root *Node
}

// Load parses the embedded tree
func Load() (*FS, error) {
	return Parse(defaultTree)
}

// Parse builds a tree from YAML
func Parse(data []byte) (*FS, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse file tree: %w", err)
	}
	if root.Type == "" {
		root.Type = TypeDir
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("root: %w", ErrNotDirectory)
	}
	if err := check("/", &root); err != nil {
		return nil, err
	}
	return &FS{root: &root}, nil
}

func check(p string, n *Node) error {
	switch n.Type {
	case TypeDir:
		for name, child := range n.Children {
			if child == nil || name == "" || strings.Contains(name, "/") {
				return fmt.Errorf("invalid entry %q under %s", name, p)
			}
			if err := check(path.Join(p, name), child); err != nil {
				return err
			}
		}
	case TypeFile:
		if len(n.Children) > 0 {
			return fmt.Errorf("file %s has children", p)
		}
	default:
		return fmt.Errorf("%s: unknown node type %q", p, n.Type)
	}
	return nil
}

// Root returns the root directory
func (f *FS) Root() *Node {
	return f.root
}

// ResolvePath walks segments from the root. It returns nil when a segment is
// missing or a file is traversed as a directory. No segments yields the root.
func (f *FS) ResolvePath(segments []string) *Node {
	current := f.root
	for _, seg := range segments {
		if !current.IsDir() {
			return nil
		}
		next, ok := current.Children[seg]
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// Resolve resolves an absolute slash-separated path
func (f *FS) Resolve(p string) *Node {
	return f.ResolvePath(ParsePath(p))
}

// ListChildren returns the children of a directory, nil for files
func ListChildren(n *Node) map[string]*Node {
	if !n.IsDir() {
		return nil
	}
	return n.Children
}

// ParsePath splits a path into segments, applying "." and "..". Going above
// the root stays at the root.
func ParsePath(p string) []string {
	segments := make([]string, 0)
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, part)
		}
	}
	return segments
}

// Join renders segments as an absolute path
func Join(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// Entries lists a directory sorted with directories first, then by name
func (f *FS) Entries(p string) ([]Entry, error) {
	segments := ParsePath(p)
	n := f.ResolvePath(segments)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", Join(segments), ErrNotFound)
	}
	if !n.IsDir() {
		return nil, fmt.Errorf("%s: %w", Join(segments), ErrNotDirectory)
	}

	base := Join(segments)
	entries := make([]Entry, 0, len(n.Children))
	for name, child := range n.Children {
		entries = append(entries, entryFor(path.Join(base, name), name, child))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == TypeDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func entryFor(p, name string, n *Node) Entry {
	e := Entry{Name: name, Path: p, Type: n.Type}
	if n.Type == TypeFile {
		e.FileKind = n.FileKind
		e.LaunchTarget = launchTarget(n)
		e.MIME = DetectMIME(n)
		e.Size = len(n.Content)
	}
	return e
}

// DetectMIME sniffs the content type of a file node
func DetectMIME(n *Node) string {
	if n == nil || n.Type != TypeFile {
		return ""
	}
	return mimetype.Detect([]byte(n.Content)).String()
}

// IsText reports whether a file's content is printable text
func IsText(n *Node) bool {
	if n == nil || n.Type != TypeFile {
		return false
	}
	for m := mimetype.Detect([]byte(n.Content)); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Glob returns every path in the tree matching pattern, sorted. Patterns use
// doublestar syntax and are matched against absolute paths.
func (f *FS) Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	var matches []string
	var walk func(p string, n *Node)
	walk = func(p string, n *Node) {
		if ok, _ := doublestar.Match(pattern, p); ok {
			matches = append(matches, p)
		}
		for name, child := range n.Children {
			walk(path.Join(p, name), child)
		}
	}
	for name, child := range f.root.Children {
		walk("/"+name, child)
	}
	sort.Strings(matches)
	return matches, nil
}

// Open returns the application a file opens in
func (f *FS) Open(p string) (string, error) {
	n := f.Resolve(p)
	if n == nil {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if n.IsDir() {
		return "", fmt.Errorf("%s: %w", p, ErrIsDirectory)
	}
	target := launchTarget(n)
	if target == "" {
		return "", fmt.Errorf("%s: %w", p, ErrNotLaunchable)
	}
	return target, nil
}

// LaunchTargets returns every application id referenced by a file, for
// registry validation
func (f *FS) LaunchTargets() []string {
	seen := make(map[string]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if t := launchTarget(n); t != "" {
			seen[t] = true
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(f.root)

	targets := make([]string, 0, len(seen))
	for t := range seen {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

func launchTarget(n *Node) string {
	if n.Type != TypeFile {
		return ""
	}
	if n.LaunchTarget != "" {
		return n.LaunchTarget
	}
	if n.FileKind == KindPDF {
		return "resume"
	}
	return ""
}
