package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/theme"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/tests/helpers/testutil"
)

func themes(t *testing.T) *theme.Catalog {
	t.Helper()
	c, err := theme.Load()
	require.NoError(t, err)
	return c
}

func TestStoreRoundTripThroughBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	first := NewManager(backend, themes(t), nil)
	want := first.Store(ctx, "guest").Update(ctx, func(p *Preferences) {
		*p = sample()
	})

	// A fresh manager over the same backend is a page reload
	reloaded := NewManager(backend, themes(t), nil).Store(ctx, "guest").Get()
	if diff := cmp.Diff(want, reloaded); diff != "" {
		t.Errorf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreDefaults(t *testing.T) {
	store := NewManager(NewMemoryBackend(), themes(t), nil).Store(context.Background(), "new")
	assert.Equal(t, Defaults(), store.Get())
	assert.False(t, store.Degraded())
}

func TestStoreUpdateNormalizes(t *testing.T) {
	ctx := context.Background()
	store := NewManager(NewMemoryBackend(), themes(t), nil).Store(ctx, "guest")

	got := store.Update(ctx, func(p *Preferences) {
		p.Volume = -2
		p.Theme = "sepia"
	})
	assert.Equal(t, 0.0, got.Volume)
	assert.Equal(t, "cyber", got.Theme)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewManager(nil, themes(t), nil).Store(ctx, "guest")
	store.Update(ctx, func(p *Preferences) { p.Achievements = append(p.Achievements, "explorer") })

	got := store.Get()
	got.Achievements[0] = "mutated"
	assert.Equal(t, []string{"explorer"}, store.Get().Achievements)
}

func TestStoreReset(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewManager(backend, themes(t), nil).Store(ctx, "guest")

	store.Update(ctx, func(p *Preferences) { p.SkipBoot = true })
	assert.Equal(t, Defaults(), store.Reset(ctx))

	reloaded := NewManager(backend, themes(t), nil).Store(ctx, "guest")
	assert.False(t, reloaded.Get().SkipBoot)
}

func TestStoreDegradesWhenSavesFail(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewMockBackend(t)
	backend.On("Load", mock.Anything, "nexus-os-settings:guest").Return(nil, ErrNotFound).Once()
	backend.On("Save", mock.Anything, "nexus-os-settings:guest", mock.Anything).Return(errors.New("disk full")).Once()
	backend.On("Save", mock.Anything, "nexus-os-settings:guest", mock.Anything).Return(nil).Once()

	store := NewManager(backend, themes(t), nil).Store(ctx, "guest")

	got := store.Update(ctx, func(p *Preferences) { p.IsMuted = true })
	assert.True(t, got.IsMuted, "in-memory value advances even when the save fails")
	assert.True(t, store.Degraded())

	store.Update(ctx, func(p *Preferences) { p.Volume = 0.9 })
	assert.False(t, store.Degraded())
	assert.True(t, store.Get().IsMuted)
}

func TestStoreBreakerOpenSkipsBackend(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewMockBackend(t)
	backend.On("Load", mock.Anything, mock.Anything).Return(nil, ErrNotFound).Once()
	backend.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("locked")).Once()

	breaker := resilience.New("test", resilience.Settings{
		Timeout:     time.Minute,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 1 },
		Clock:       scheduler.NewFake(time.Unix(0, 0)),
	})
	mgr := NewManager(backend, themes(t), nil, WithBreaker(breaker))
	store := mgr.Store(ctx, "guest")

	store.Update(ctx, func(p *Preferences) { p.SkipBoot = true })
	store.Update(ctx, func(p *Preferences) { p.SkipBoot = false })
	store.Update(ctx, func(p *Preferences) { p.SkipBoot = true })

	assert.True(t, store.Degraded())
	assert.True(t, store.Get().SkipBoot)
	assert.Equal(t, Stats{Profiles: 1, Degraded: 1, BreakerState: "open"}, mgr.Stats())
}

func TestManagerLoadFailureUsesDefaults(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewMockBackend(t)
	backend.On("Load", mock.Anything, "nexus-os-settings:guest").Return(nil, errors.New("unavailable")).Once()

	store := NewManager(backend, themes(t), nil).Store(ctx, "guest")
	assert.Equal(t, Defaults(), store.Get())
}

func TestManagerDiscardsCorruptBlob(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, "nexus-os-settings:guest", []byte("{garbage")))

	store := NewManager(backend, themes(t), nil).Store(ctx, "guest")
	assert.Equal(t, Defaults(), store.Get())
}

func TestManagerCachesStores(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryBackend(), themes(t), nil)

	a := mgr.Store(ctx, "a")
	assert.Same(t, a, mgr.Store(ctx, "a"))
	assert.NotSame(t, a, mgr.Store(ctx, "b"))
	assert.Equal(t, 2, mgr.Stats().Profiles)
}

func TestManagerEvictsReleasedStores(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryBackend(), themes(t), nil)

	held, release := mgr.Acquire(ctx, "held")
	held.Update(ctx, func(p *Preferences) { p.IsMuted = true })
	idle := mgr.Store(ctx, "idle")
	idle.Update(ctx, func(p *Preferences) { p.SkipBoot = true })

	assert.Equal(t, 1, mgr.Evict())
	assert.Same(t, held, mgr.Store(ctx, "held"))
	reloaded := mgr.Store(ctx, "idle")
	assert.NotSame(t, idle, reloaded)
	assert.True(t, reloaded.Get().SkipBoot)

	release()
	release()
	assert.Equal(t, 2, mgr.Evict())
	assert.Zero(t, mgr.Stats().Profiles)
	assert.True(t, mgr.Store(ctx, "held").Get().IsMuted)
}

func TestManagerKeepsStoresWithoutBackend(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil, themes(t), nil)

	mgr.Store(ctx, "guest").Update(ctx, func(p *Preferences) { p.IsMuted = true })
	assert.Zero(t, mgr.Evict())
	assert.True(t, mgr.Store(ctx, "guest").Get().IsMuted)
}

func TestPatch(t *testing.T) {
	cat := themes(t)
	vol := 0.25
	muted := true
	green := "green"
	bad := "sepia"
	loud := 1.5

	require.NoError(t, Patch{Volume: &vol, IsMuted: &muted, Theme: &green}.Validate(cat))
	assert.ErrorIs(t, Patch{Theme: &bad}.Validate(cat), ErrInvalidPreference)
	assert.ErrorIs(t, Patch{Volume: &loud}.Validate(cat), ErrInvalidPreference)

	p := Defaults()
	Patch{Volume: &vol, IsMuted: &muted, Theme: &green}.Apply(&p)
	assert.Equal(t, 0.25, p.Volume)
	assert.True(t, p.IsMuted)
	assert.Equal(t, "green", p.Theme)
	assert.True(t, p.ParticlesEnabled, "unset fields are untouched")
}

func TestRecordPaletteSelection(t *testing.T) {
	p := Defaults()
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "c"} {
		p.RecordPaletteSelection(id)
	}
	assert.Equal(t, []string{"c", "f", "e", "d", "b"}, p.PaletteHistory)
}
