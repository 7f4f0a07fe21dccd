package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"
)

// ErrUnknownApplication is returned when an app id has no catalog entry
var ErrUnknownApplication = errors.New("unknown application")

//go:embed apps.yaml
var defaultCatalog []byte

// Entry is one catalog application
type Entry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PaletteTitle string    `json:"palette_title,omitempty"`
	Icon         string    `json:"icon"`
	Description  string    `json:"description"`
	Keywords     []string  `json:"keywords"`
	Component    Component `json:"-"`
}

// DisplayTitle is the title shown in the command palette
func (e Entry) DisplayTitle() string {
	if e.PaletteTitle != "" {
		return e.PaletteTitle
	}
	return e.Title
}

type entrySpec struct {
	ID           string        `yaml:"id"`
	Title        string        `yaml:"title"`
	PaletteTitle string        `yaml:"palette_title"`
	Icon         string        `yaml:"icon"`
	Description  string        `yaml:"description"`
	Keywords     []string      `yaml:"keywords"`
	Component    componentSpec `yaml:"component"`
}

func (s entrySpec) entry() (Entry, error) {
	if s.ID == "" || s.Title == "" {
		return Entry{}, fmt.Errorf("manifest missing required fields (id, title)")
	}
	comp, err := s.Component.build()
	if err != nil {
		return Entry{}, fmt.Errorf("app %s: %w", s.ID, err)
	}
	return Entry{
		ID:           s.ID,
		Title:        s.Title,
		PaletteTitle: s.PaletteTitle,
		Icon:         s.Icon,
		Description:  s.Description,
		Keywords:     s.Keywords,
		Component:    comp,
	}, nil
}

type catalogSpec struct {
	Apps    []entrySpec `yaml:"apps"`
	Desktop []string    `yaml:"desktop"`
	Dock    []string    `yaml:"dock"`
	Palette []string    `yaml:"palette"`
}

// Manager holds the application catalog
type Manager struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	desktop []string
	dock    []string
	palette []string
}

// Load parses the embedded catalog
func Load() (*Manager, error) {
	return Parse(defaultCatalog)
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Manager, error) {
	var spec catalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	m := &Manager{
		entries: make(map[string]Entry, len(spec.Apps)),
		desktop: spec.Desktop,
		dock:    spec.Dock,
		palette: spec.Palette,
	}
	for _, s := range spec.Apps {
		entry, err := s.entry()
		if err != nil {
			return nil, err
		}
		if _, dup := m.entries[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate app id %q", entry.ID)
		}
		m.entries[entry.ID] = entry
		m.order = append(m.order, entry.ID)
	}
	return m, nil
}

// Register adds or replaces an entry. Used by the seeder before the catalog
// is handed to sessions.
func (m *Manager) Register(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.ID]; !exists {
		m.order = append(m.order, entry.ID)
	}
	m.entries[entry.ID] = entry
}

// Resolve looks up an application by id
func (m *Manager) Resolve(appID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[appID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownApplication, appID)
	}
	return entry, nil
}

// Has reports whether appID is registered
func (m *Manager) Has(appID string) bool {
	_, err := m.Resolve(appID)
	return err == nil
}

// List returns every entry in catalog order
func (m *Manager) List() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out
}

// Desktop returns the desktop icon app ids
func (m *Manager) Desktop() []string {
	return m.copyList(m.desktop)
}

// Dock returns the dock app ids
func (m *Manager) Dock() []string {
	return m.copyList(m.dock)
}

// Palette returns the command palette entries in display order. Apps not
// named in the palette list are appended in catalog order.
func (m *Manager) Palette() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool, len(m.entries))
	out := make([]Entry, 0, len(m.entries))
	for _, id := range m.palette {
		if entry, ok := m.entries[id]; ok && !seen[id] {
			out = append(out, entry)
			seen[id] = true
		}
	}
	for _, id := range m.order {
		if !seen[id] {
			out = append(out, m.entries[id])
		}
	}
	return out
}

// Validate checks that every referenced id resolves. External references,
// such as file system launch targets, are passed in.
func (m *Manager) Validate(external ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	missing := make(map[string]bool)
	check := func(ids []string) {
		for _, id := range ids {
			if _, ok := m.entries[id]; !ok {
				missing[id] = true
			}
		}
	}
	check(m.desktop)
	check(m.dock)
	check(m.palette)
	check(external)

	if len(missing) == 0 {
		return nil
	}
	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Errorf("catalog references %v: %w", ids, ErrUnknownApplication)
}

// Count returns the number of registered applications
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Manager) copyList(ids []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), ids...)
}
