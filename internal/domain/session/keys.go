package session

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

// HandleKey dispatches a global keyboard shortcut. Reports whether the key
// was consumed.
//
//	Ctrl/Meta+K  open the command palette
//	Escape       close the palette, else the achievements panel, else the focused window
//	Alt+Tab      cycle focus through visible windows
func (s *Session) HandleKey(ctx context.Context, key types.KeyRequest) (bool, error) {
	var handled bool
	err := s.onDesktop(func() error {
		handled = s.dispatchKey(ctx, key)
		return nil
	})
	return handled, err
}

// dispatchKey must be called with s.mu held
func (s *Session) dispatchKey(ctx context.Context, key types.KeyRequest) bool {
	switch {
	case (key.Ctrl || key.Meta) && strings.EqualFold(key.Key, "k"):
		s.setOverlay(OverlayPalette, true)
		s.tracker.RecordEvent(ctx, achievement.Event{Kind: achievement.EventShortcut})
		s.sink.CuePlayed(types.CueClick)
		return true

	case key.Key == "Escape":
		switch {
		case s.overlays[OverlayPalette]:
			s.setOverlay(OverlayPalette, false)
		case s.overlays[OverlayAchievements]:
			s.setOverlay(OverlayAchievements, false)
		default:
			focused := s.desktop.Focused()
			if focused == "" {
				return false
			}
			s.desktop.Close(focused)
		}
		return true

	case key.Alt && key.Key == "Tab":
		s.tracker.RecordEvent(ctx, achievement.Event{Kind: achievement.EventShortcut})
		s.desktop.CycleFocus()
		return true
	}
	return false
}
