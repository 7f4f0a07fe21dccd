// Package palette implements the command palette search and launch flow.
package palette

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

// Item is one palette row
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Recent      bool     `json:"recent,omitempty"`
}

// Catalog supplies the palette entries in display order
type Catalog interface {
	Palette() []registry.Entry
}

// Launcher opens the selected application
type Launcher interface {
	Launch(ctx context.Context, appID string, payload map[string]any) (types.Window, error)
}

// HistoryStore persists the recently used list
type HistoryStore interface {
	Update(ctx context.Context, fn func(p *prefs.Preferences)) prefs.Preferences
}

// Palette searches a fixed list of applications
type Palette struct {
	items []Item
	index map[string]int
}

// New builds a palette from the catalog
func New(catalog Catalog) *Palette {
	entries := catalog.Palette()
	p := &Palette{
		items: make([]Item, len(entries)),
		index: make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		p.items[i] = Item{
			ID:          e.ID,
			Title:       e.DisplayTitle(),
			Icon:        e.Icon,
			Description: e.Description,
			Keywords:    append([]string(nil), e.Keywords...),
		}
		p.index[e.ID] = i
	}
	return p
}

// Has reports whether id is listed
func (p *Palette) Has(id string) bool {
	_, ok := p.index[id]
	return ok
}

// Search returns the items matching query. Title substring matches come
// first, otherwise catalog order is kept. An empty query lists everything
// with the recent history first, most recent on top.
func (p *Palette) Search(query string, history []string) []Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return p.recentFirst(history)
	}

	q := strings.ToLower(query)
	out := make([]Item, 0, len(p.items))
	for _, item := range p.items {
		if matches(item, q) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return titleHit(out[i], q) && !titleHit(out[j], q)
	})
	return out
}

// Select launches id and records it at the head of the history
func (p *Palette) Select(ctx context.Context, id string, store HistoryStore, launcher Launcher) (types.Window, error) {
	if !p.Has(id) {
		return types.Window{}, fmt.Errorf("palette entry %q: %w", id, registry.ErrUnknownApplication)
	}
	w, err := launcher.Launch(ctx, id, nil)
	if err != nil {
		return types.Window{}, err
	}
	store.Update(ctx, func(p *prefs.Preferences) { p.RecordPaletteSelection(id) })
	return w, nil
}

func (p *Palette) recentFirst(history []string) []Item {
	out := make([]Item, 0, len(p.items))
	seen := make(map[string]bool, len(history))
	for _, id := range history {
		i, ok := p.index[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		item := p.items[i]
		item.Recent = true
		out = append(out, item)
	}
	for _, item := range p.items {
		if !seen[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

func matches(item Item, q string) bool {
	if Match(item.Title, q) || Match(item.Description, q) {
		return true
	}
	for _, k := range item.Keywords {
		if Match(k, q) {
			return true
		}
	}
	return false
}

func titleHit(item Item, q string) bool {
	return strings.Contains(strings.ToLower(item.Title), q)
}

// Match reports whether query is a case-insensitive substring or
// subsequence of text
func Match(text, query string) bool {
	t := strings.ToLower(text)
	q := []rune(strings.ToLower(query))
	if strings.Contains(t, string(q)) {
		return true
	}

	i := 0
	for _, r := range t {
		if i == len(q) {
			break
		}
		if r == q[i] {
			i++
		}
	}
	return i == len(q)
}
