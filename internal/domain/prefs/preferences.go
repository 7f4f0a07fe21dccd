package prefs

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPreference is returned when a patch carries an unusable value
var ErrInvalidPreference = errors.New("invalid preference")

// DefaultTheme is used when no theme catalog is configured
const DefaultTheme = "cyber"

// PaletteHistoryLimit caps the command palette MRU list
const PaletteHistoryLimit = 5

// Progress tracks the counters achievements are evaluated against
type Progress struct {
	AppsOpened       []string   `json:"apps_opened"`
	CommandsExecuted int        `json:"commands_executed"`
	HighScore        int        `json:"high_score"`
	ProjectsExpanded int        `json:"projects_expanded"`
	ShortcutsUsed    int        `json:"shortcuts_used"`
	SectionsVisited  []string   `json:"sections_visited"`
	BootedAt         *time.Time `json:"booted_at,omitempty"`
}

// Preferences is one profile's persisted settings
type Preferences struct {
	Volume            float64  `json:"volume"`
	IsMuted           bool     `json:"is_muted"`
	SkipBoot          bool     `json:"skip_boot"`
	Theme             string   `json:"theme"`
	PerformanceMode   bool     `json:"performance_mode"`
	ParticlesEnabled  bool     `json:"particles_enabled"`
	MatrixRainEnabled bool     `json:"matrix_rain_enabled"`
	Achievements      []string `json:"achievements"`
	Progress          Progress `json:"progress"`
	PaletteHistory    []string `json:"palette_history"`
}

// Defaults returns a first-run record
func Defaults() Preferences {
	return Preferences{
		Volume:           0.5,
		Theme:            DefaultTheme,
		ParticlesEnabled: true,
		Achievements:     []string{},
		Progress: Progress{
			AppsOpened:      []string{},
			SectionsVisited: []string{},
		},
		PaletteHistory: []string{},
	}
}

// Clone returns a deep copy
func (p Preferences) Clone() Preferences {
	out := p
	out.Achievements = cloneStrings(p.Achievements)
	out.PaletteHistory = cloneStrings(p.PaletteHistory)
	out.Progress.AppsOpened = cloneStrings(p.Progress.AppsOpened)
	out.Progress.SectionsVisited = cloneStrings(p.Progress.SectionsVisited)
	if p.Progress.BootedAt != nil {
		t := *p.Progress.BootedAt
		out.Progress.BootedAt = &t
	}
	return out
}

// HasAchievement reports whether id is unlocked
func (p Preferences) HasAchievement(id string) bool {
	return contains(p.Achievements, id)
}

// RecordPaletteSelection moves appID to the head of the palette history
func (p *Preferences) RecordPaletteSelection(appID string) {
	history := make([]string, 0, PaletteHistoryLimit)
	history = append(history, appID)
	for _, id := range p.PaletteHistory {
		if id != appID && len(history) < PaletteHistoryLimit {
			history = append(history, id)
		}
	}
	p.PaletteHistory = history
}

// normalize repairs values a decoder or caller may have left out of range
func (p *Preferences) normalize(themes ThemeCatalog) {
	switch {
	case p.Volume < 0:
		p.Volume = 0
	case p.Volume > 1:
		p.Volume = 1
	}
	if themes != nil && !themes.Has(p.Theme) {
		p.Theme = themes.Default()
	} else if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.PaletteHistory == nil {
		p.PaletteHistory = []string{}
	}
	if len(p.PaletteHistory) > PaletteHistoryLimit {
		p.PaletteHistory = p.PaletteHistory[:PaletteHistoryLimit]
	}
	if p.Progress.AppsOpened == nil {
		p.Progress.AppsOpened = []string{}
	}
	if p.Progress.SectionsVisited == nil {
		p.Progress.SectionsVisited = []string{}
	}
}

// Patch is a partial update; nil fields are left alone
type Patch struct {
	Volume            *float64 `json:"volume,omitempty"`
	IsMuted           *bool    `json:"is_muted,omitempty"`
	SkipBoot          *bool    `json:"skip_boot,omitempty"`
	Theme             *string  `json:"theme,omitempty"`
	PerformanceMode   *bool    `json:"performance_mode,omitempty"`
	ParticlesEnabled  *bool    `json:"particles_enabled,omitempty"`
	MatrixRainEnabled *bool    `json:"matrix_rain_enabled,omitempty"`
}

// Validate rejects values that normalization would silently change
func (pt Patch) Validate(themes ThemeCatalog) error {
	if pt.Volume != nil && (*pt.Volume < 0 || *pt.Volume > 1) {
		return fmt.Errorf("%w: volume %v outside [0,1]", ErrInvalidPreference, *pt.Volume)
	}
	if pt.Theme != nil && themes != nil && !themes.Has(*pt.Theme) {
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidPreference, *pt.Theme)
	}
	return nil
}

// Apply writes the set fields onto p
func (pt Patch) Apply(p *Preferences) {
	if pt.Volume != nil {
		p.Volume = *pt.Volume
	}
	if pt.IsMuted != nil {
		p.IsMuted = *pt.IsMuted
	}
	if pt.SkipBoot != nil {
		p.SkipBoot = *pt.SkipBoot
	}
	if pt.Theme != nil {
		p.Theme = *pt.Theme
	}
	if pt.PerformanceMode != nil {
		p.PerformanceMode = *pt.PerformanceMode
	}
	if pt.ParticlesEnabled != nil {
		p.ParticlesEnabled = *pt.ParticlesEnabled
	}
	if pt.MatrixRainEnabled != nil {
		p.MatrixRainEnabled = *pt.MatrixRainEnabled
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
