package registry

import "fmt"

// Kind identifies a component variant
type Kind string

const (
	KindTerminal Kind = "terminal"
	KindExplorer Kind = "explorer"
	KindDocument Kind = "document"
	KindGame     Kind = "game"
	KindVisual   Kind = "visual"
)

// MountContext is what a component receives when its window opens
type MountContext struct {
	AppID   string
	Payload map[string]any
}

// View is a serializable description of a mounted component. Clients
// render it; the service never does.
type View struct {
	Kind  Kind           `json:"kind"`
	AppID string         `json:"app_id"`
	Data  map[string]any `json:"data,omitempty"`
}

// Component is implemented by every application variant
type Component interface {
	Kind() Kind
	Mount(ctx MountContext) View
}

// TerminalComponent hosts the shell
type TerminalComponent struct {
	Prompt string
	Cwd    string
}

func (c TerminalComponent) Kind() Kind { return KindTerminal }

func (c TerminalComponent) Mount(ctx MountContext) View {
	return View{Kind: KindTerminal, AppID: ctx.AppID, Data: map[string]any{
		"prompt": c.Prompt,
		"cwd":    c.Cwd,
	}}
}

// ExplorerComponent browses the virtual file system
type ExplorerComponent struct {
	Root string
}

func (c ExplorerComponent) Kind() Kind { return KindExplorer }

func (c ExplorerComponent) Mount(ctx MountContext) View {
	path := c.Root
	if p, ok := ctx.Payload["path"].(string); ok && p != "" {
		path = p
	}
	return View{Kind: KindExplorer, AppID: ctx.AppID, Data: map[string]any{"path": path}}
}

// DocumentComponent shows static content such as the resume or contact card
type DocumentComponent struct {
	Document string
	Sections []string
}

func (c DocumentComponent) Kind() Kind { return KindDocument }

func (c DocumentComponent) Mount(ctx MountContext) View {
	data := map[string]any{"document": c.Document}
	if len(c.Sections) > 0 {
		data["sections"] = append([]string(nil), c.Sections...)
	}
	if file, ok := ctx.Payload["file"]; ok {
		data["file"] = file
	}
	return View{Kind: KindDocument, AppID: ctx.AppID, Data: data}
}

// GameComponent is a client-side game that reports scores back
type GameComponent struct {
	Game string
}

func (c GameComponent) Kind() Kind { return KindGame }

func (c GameComponent) Mount(ctx MountContext) View {
	return View{Kind: KindGame, AppID: ctx.AppID, Data: map[string]any{
		"game":    c.Game,
		"reports": "score",
	}}
}

// VisualComponent is a purely presentational scene
type VisualComponent struct {
	Scene string
}

func (c VisualComponent) Kind() Kind { return KindVisual }

func (c VisualComponent) Mount(ctx MountContext) View {
	data := map[string]any{"scene": c.Scene}
	if file, ok := ctx.Payload["file"]; ok {
		data["file"] = file
	}
	return View{Kind: KindVisual, AppID: ctx.AppID, Data: data}
}

// componentSpec is the catalog form of a component
type componentSpec struct {
	Kind     Kind     `yaml:"kind"`
	Prompt   string   `yaml:"prompt"`
	Cwd      string   `yaml:"cwd"`
	Root     string   `yaml:"root"`
	Document string   `yaml:"document"`
	Sections []string `yaml:"sections"`
	Game     string   `yaml:"game"`
	Scene    string   `yaml:"scene"`
}

func (s componentSpec) build() (Component, error) {
	switch s.Kind {
	case KindTerminal:
		cwd := s.Cwd
		if cwd == "" {
			cwd = "/home/user"
		}
		return TerminalComponent{Prompt: s.Prompt, Cwd: cwd}, nil
	case KindExplorer:
		root := s.Root
		if root == "" {
			root = "/"
		}
		return ExplorerComponent{Root: root}, nil
	case KindDocument:
		return DocumentComponent{Document: s.Document, Sections: s.Sections}, nil
	case KindGame:
		return GameComponent{Game: s.Game}, nil
	case KindVisual:
		return VisualComponent{Scene: s.Scene}, nil
	default:
		return nil, fmt.Errorf("unknown component kind %q", s.Kind)
	}
}
