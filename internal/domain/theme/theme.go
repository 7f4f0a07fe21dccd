// Package theme provides the desktop theme catalog.
package theme

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownTheme is returned for ids missing from the catalog
var ErrUnknownTheme = errors.New("unknown theme")

//go:embed themes.toml
var defaultCatalog []byte

// Theme represents a UI theme
type Theme struct {
	ID          string            `toml:"id" json:"id"`
	Name        string            `toml:"name" json:"name"`
	Description string            `toml:"description" json:"description,omitempty"`
	Type        string            `toml:"type" json:"type"` // "dark" or "light"
	Colors      map[string]string `toml:"colors" json:"colors"`
	Fonts       map[string]string `toml:"fonts" json:"fonts,omitempty"`
}

// Catalog is an immutable set of themes
type Catalog struct {
	defaultID string
	themes    []Theme
	byID      map[string]int
}

type catalogFile struct {
	Default string  `toml:"default"`
	Themes  []Theme `toml:"themes"`
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse builds a catalog from TOML
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse themes: %w", err)
	}

	c := &Catalog{defaultID: file.Default, byID: make(map[string]int, len(file.Themes))}
	for _, t := range file.Themes {
		if t.ID == "" {
			return nil, fmt.Errorf("theme missing id")
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate theme %q", t.ID)
		}
		c.byID[t.ID] = len(c.themes)
		c.themes = append(c.themes, t)
	}
	if _, ok := c.byID[c.defaultID]; !ok {
		return nil, fmt.Errorf("default theme %q: %w", c.defaultID, ErrUnknownTheme)
	}
	return c, nil
}

// Default returns the default theme id
func (c *Catalog) Default() string {
	return c.defaultID
}

// Has reports whether id is in the catalog
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Get returns a theme by id
func (c *Catalog) Get(id string) (Theme, error) {
	i, ok := c.byID[id]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %s", ErrUnknownTheme, id)
	}
	return c.themes[i], nil
}

// List returns every theme in catalog order
func (c *Catalog) List() []Theme {
	return append([]Theme(nil), c.themes...)
}
