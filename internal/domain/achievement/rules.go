package achievement

import (
	"time"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
)

// Definition describes one badge
type Definition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Requirement int    `json:"requirement"`
}

// EventKind names a tracked action
type EventKind string

const (
	EventAppOpen       EventKind = "app_open"
	EventCommand       EventKind = "command"
	EventScore         EventKind = "score"
	EventProjectExpand EventKind = "project_expand"
	EventShortcut      EventKind = "shortcut"
	EventVisit         EventKind = "visit"
	EventDesktopReady  EventKind = "desktop_ready"
)

// Event is one tracked action. A zero At is stamped with the tracker clock.
type Event struct {
	Kind  EventKind
	AppID string
	Value int
	At    time.Time
}

const speedDemonWindow = 2 * time.Second

// sections are the apps that count toward the full tour
var sections = []string{"about", "projects", "contact"}

type rule struct {
	def Definition
	// met reports whether the badge is earned after ev was applied
	met func(p prefs.Progress, ev Event, loc *time.Location) bool
	// progress is the current count shown against Requirement
	progress func(p prefs.Progress) int
}

var rules = []rule{
	{
		def: Definition{ID: "explorer", Name: "Explorer", Description: "Open 3 different applications", Icon: "🗺️", Requirement: 3},
		met: func(p prefs.Progress, _ Event, _ *time.Location) bool {
			return len(p.AppsOpened) >= 3
		},
		progress: func(p prefs.Progress) int { return len(p.AppsOpened) },
	},
	{
		def: Definition{ID: "terminal_master", Name: "Terminal Master", Description: "Execute 5 terminal commands", Icon: "💻", Requirement: 5},
		met: func(p prefs.Progress, _ Event, _ *time.Location) bool {
			return p.CommandsExecuted >= 5
		},
		progress: func(p prefs.Progress) int { return p.CommandsExecuted },
	},
	{
		def: Definition{ID: "snake_charmer", Name: "Snake Charmer", Description: "Score 10+ points in Snake game", Icon: "🐍", Requirement: 10},
		met: func(p prefs.Progress, _ Event, _ *time.Location) bool {
			return p.HighScore >= 10
		},
		progress: func(p prefs.Progress) int { return p.HighScore },
	},
	{
		def: Definition{ID: "curious_cat", Name: "Curious Cat", Description: "Expand all project cards", Icon: "🔍", Requirement: 5},
		met: func(p prefs.Progress, _ Event, _ *time.Location) bool {
			return p.ProjectsExpanded >= 5
		},
		progress: func(p prefs.Progress) int { return p.ProjectsExpanded },
	},
	{
		def: Definition{ID: "power_user", Name: "Power User", Description: "Use 3 keyboard shortcuts", Icon: "⌨️", Requirement: 3},
		met: func(p prefs.Progress, _ Event, _ *time.Location) bool {
			return p.ShortcutsUsed >= 3
		},
		progress: func(p prefs.Progress) int { return p.ShortcutsUsed },
	},
	{
		def: Definition{ID: "full_tour", Name: "Full Tour", Description: "Visit About, Projects, and Contact", Icon: "🎯", Requirement: 3},
		met: func(p prefs.Progress, _ Event, _ *time.Location) bool {
			for _, s := range sections {
				if !contains(p.SectionsVisited, s) {
					return false
				}
			}
			return true
		},
		progress: func(p prefs.Progress) int { return len(p.SectionsVisited) },
	},
	{
		def: Definition{ID: "night_owl", Name: "Night Owl", Description: "Visit the portfolio after 10 PM", Icon: "🦉", Requirement: 1},
		met: func(_ prefs.Progress, ev Event, loc *time.Location) bool {
			hour := ev.At.In(loc).Hour()
			return hour >= 22 || hour < 5
		},
	},
	{
		def: Definition{ID: "speed_demon", Name: "Speed Demon", Description: "Open an app within 2 seconds of boot", Icon: "⚡", Requirement: 1},
		met: func(p prefs.Progress, ev Event, _ *time.Location) bool {
			if ev.Kind != EventAppOpen || p.BootedAt == nil {
				return false
			}
			elapsed := ev.At.Sub(*p.BootedAt)
			return elapsed >= 0 && elapsed <= speedDemonWindow
		},
	},
}

// Definitions returns every badge in display order
func Definitions() []Definition {
	out := make([]Definition, len(rules))
	for i, r := range rules {
		out[i] = r.def
	}
	return out
}

// apply folds ev into the progress counters
func apply(p *prefs.Progress, ev Event) {
	switch ev.Kind {
	case EventAppOpen:
		if ev.AppID == "" {
			return
		}
		if !contains(p.AppsOpened, ev.AppID) {
			p.AppsOpened = append(p.AppsOpened, ev.AppID)
		}
		if contains(sections, ev.AppID) && !contains(p.SectionsVisited, ev.AppID) {
			p.SectionsVisited = append(p.SectionsVisited, ev.AppID)
		}
	case EventCommand:
		p.CommandsExecuted++
	case EventScore:
		if (ev.AppID == "" || ev.AppID == "snake") && ev.Value > p.HighScore {
			p.HighScore = ev.Value
		}
	case EventProjectExpand:
		p.ProjectsExpanded++
	case EventShortcut:
		p.ShortcutsUsed++
	case EventDesktopReady:
		at := ev.At
		p.BootedAt = &at
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
