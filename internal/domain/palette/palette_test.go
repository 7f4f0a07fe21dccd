package palette

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

type fakeLauncher struct {
	launched []string
	err      error
}

func (f *fakeLauncher) Launch(_ context.Context, appID string, _ map[string]any) (types.Window, error) {
	if f.err != nil {
		return types.Window{}, f.err
	}
	f.launched = append(f.launched, appID)
	return types.Window{ID: appID, Focused: true}, nil
}

func newPalette(t *testing.T) *Palette {
	t.Helper()
	reg, err := registry.Load()
	require.NoError(t, err)
	return New(reg)
}

func itemIDs(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestMatch(t *testing.T) {
	tests := []struct {
		text, query string
		want        bool
	}{
		{"Resume", "res", true},
		{"Resume", "RES", true},
		{"Browse virtual filesystem", "res", true},
		{"Terminal", "tml", true},
		{"Terminal", "lmt", false},
		{"Snake", "snakes", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.text, tt.query), "%q ~ %q", tt.text, tt.query)
	}
}

func TestTitleSubstringRanksFirst(t *testing.T) {
	p := newPalette(t)

	results := itemIDs(p.Search("res", nil))
	require.NotEmpty(t, results)
	assert.Equal(t, "resume", results[0])
	assert.Contains(t, results, "explorer", "matched by description subsequence")
	assert.NotContains(t, results, "puzzle")
}

func TestRankingIsStable(t *testing.T) {
	p := newPalette(t)

	results := itemIDs(p.Search("game", nil))
	assert.Equal(t, []string{"snake", "puzzle"}, results)

	results = itemIDs(p.Search("terminal", nil))
	assert.Equal(t, []string{"terminal3d", "terminal"}, results)
}

func TestDisplayTitles(t *testing.T) {
	p := newPalette(t)

	items := p.Search("snake", nil)
	require.NotEmpty(t, items)
	assert.Equal(t, "Snake Game", items[0].Title)
}

func TestEmptyQueryListsHistoryFirst(t *testing.T) {
	p := newPalette(t)

	items := p.Search("  ", []string{"snake", "ghost", "terminal", "snake"})
	ids := itemIDs(items)

	assert.Equal(t, []string{"snake", "terminal"}, ids[:2])
	assert.True(t, items[0].Recent)
	assert.False(t, items[2].Recent)
	assert.Len(t, ids, len(p.Search("", nil)))
}

func TestSelectRecordsHistory(t *testing.T) {
	p := newPalette(t)
	store := prefs.NewManager(nil, nil, nil).Store(context.Background(), "palette")
	launcher := &fakeLauncher{}
	ctx := context.Background()

	for _, id := range []string{"about", "snake", "terminal", "resume", "contact", "puzzle", "snake"} {
		_, err := p.Select(ctx, id, store, launcher)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"snake", "puzzle", "contact", "resume", "terminal"}, store.Get().PaletteHistory)
	assert.Len(t, launcher.launched, 7)
}

func TestSelectUnknownOrFailedLaunch(t *testing.T) {
	p := newPalette(t)
	store := prefs.NewManager(nil, nil, nil).Store(context.Background(), "palette")
	ctx := context.Background()

	_, err := p.Select(ctx, "solitaire", store, &fakeLauncher{})
	assert.ErrorIs(t, err, registry.ErrUnknownApplication)

	boom := errors.New("boom")
	_, err = p.Select(ctx, "snake", store, &fakeLauncher{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Get().PaletteHistory)
}
