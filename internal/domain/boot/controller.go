package boot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
)

// ErrInvalidTransition is returned when an operation is not allowed from the current stage
var ErrInvalidTransition = errors.New("invalid boot transition")

// Stage is a boot state
type Stage string

const (
	StageOff        Stage = "OFF"
	StageBIOS       Stage = "BIOS"
	StageBootloader Stage = "BOOTLOADER"
	StageDesktop    Stage = "DESKTOP"
	StageCyberworld Stage = "CYBERWORLD"
	StageResume     Stage = "RESUME"
)

// Memory test parameters of the BIOS screen
const (
	MemoryTotal   = 64000
	memoryStep    = 2000
	memoryTick    = 50 * time.Millisecond
	settleDelay   = 500 * time.Millisecond
	defaultLength = MemoryTotal/memoryStep*memoryTick + settleDelay
)

// IsDestination reports whether s can be chosen from the bootloader
func (s Stage) IsDestination() bool {
	return s == StageDesktop || s == StageCyberworld || s == StageResume
}

// Listener observes stage changes. It is called without the controller lock held.
type Listener interface {
	StageChanged(from, to Stage)
}

// Store is the preference store the skip flag persists through
type Store interface {
	Get() prefs.Preferences
	Update(ctx context.Context, fn func(p *prefs.Preferences)) prefs.Preferences
}

// Options configures a Controller
type Options struct {
	Clock scheduler.Clock
	// BIOSDuration is how long the BIOS screen shows before the bootloader
	BIOSDuration time.Duration
	Listener     Listener
	Logger       *logging.Logger
}

// Controller drives one session's boot stage
type Controller struct {
	store    Store
	timers   *scheduler.Group
	clock    scheduler.Clock
	duration time.Duration
	listener Listener
	logger   *logging.Logger

	mu         sync.Mutex
	stage      Stage
	poweredAt  time.Time
	cancelBIOS func() bool
}

// NewController creates a controller. It starts on the desktop when the
// profile previously chose to skip the boot sequence, otherwise powered off.
func NewController(store Store, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = scheduler.Real()
	}
	if opts.BIOSDuration <= 0 {
		opts.BIOSDuration = defaultLength
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	c := &Controller{
		store:    store,
		timers:   scheduler.NewGroup(opts.Clock),
		clock:    opts.Clock,
		duration: opts.BIOSDuration,
		listener: opts.Listener,
		logger:   opts.Logger.Component("boot"),
		stage:    StageOff,
	}
	if store != nil && store.Get().SkipBoot {
		c.stage = StageDesktop
	}
	return c
}

// Stage returns the current stage
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Progress returns the simulated BIOS memory count, 0 before power on and
// MemoryTotal once the BIOS has finished
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.stage {
	case StageOff:
		return 0
	case StageBIOS:
		ticks := int(c.clock.Now().Sub(c.poweredAt) / memoryTick)
		return min(ticks*memoryStep, MemoryTotal)
	default:
		return MemoryTotal
	}
}

// Power switches the machine on and schedules the bootloader
func (c *Controller) Power() error {
	c.mu.Lock()
	if c.stage != StageOff {
		from := c.stage
		c.mu.Unlock()
		return fmt.Errorf("%w: power from %s", ErrInvalidTransition, from)
	}
	c.stage = StageBIOS
	c.poweredAt = c.clock.Now()
	c.cancelBIOS = c.timers.After(c.duration, c.finishBIOS)
	c.mu.Unlock()

	c.notify(StageOff, StageBIOS)
	return nil
}

// finishBIOS runs on the BIOS timer
func (c *Controller) finishBIOS() {
	c.mu.Lock()
	if c.stage != StageBIOS {
		c.mu.Unlock()
		return
	}
	c.stage = StageBootloader
	c.cancelBIOS = nil
	c.mu.Unlock()

	c.notify(StageBIOS, StageBootloader)
}

// Skip jumps to the desktop from any pre-desktop stage and persists the choice
func (c *Controller) Skip(ctx context.Context) error {
	c.mu.Lock()
	from := c.stage
	switch from {
	case StageOff, StageBIOS, StageBootloader:
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: skip from %s", ErrInvalidTransition, from)
	}
	c.stopBIOS()
	c.stage = StageDesktop
	c.mu.Unlock()

	if c.store != nil {
		c.store.Update(ctx, func(p *prefs.Preferences) { p.SkipBoot = true })
	}
	c.notify(from, StageDesktop)
	return nil
}

// Choose leaves the bootloader for a destination
func (c *Controller) Choose(dest Stage) error {
	if !dest.IsDestination() {
		return fmt.Errorf("%w: unknown destination %q", ErrInvalidTransition, dest)
	}

	c.mu.Lock()
	if c.stage != StageBootloader {
		from := c.stage
		c.mu.Unlock()
		return fmt.Errorf("%w: choose from %s", ErrInvalidTransition, from)
	}
	c.stage = dest
	c.mu.Unlock()

	c.notify(StageBootloader, dest)
	return nil
}

// Exit returns from an alternate experience to the bootloader
func (c *Controller) Exit() error {
	c.mu.Lock()
	from := c.stage
	if from != StageCyberworld && from != StageResume {
		c.mu.Unlock()
		return fmt.Errorf("%w: exit from %s", ErrInvalidTransition, from)
	}
	c.stage = StageBootloader
	c.mu.Unlock()

	c.notify(from, StageBootloader)
	return nil
}

// Close releases every pending timer
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelBIOS = nil
	c.mu.Unlock()
	c.timers.Close()
}

// Pending returns the number of scheduled timers
func (c *Controller) Pending() int {
	return c.timers.Pending()
}

// stopBIOS must be called with c.mu held
func (c *Controller) stopBIOS() {
	if c.cancelBIOS != nil {
		c.cancelBIOS()
		c.cancelBIOS = nil
	}
}

func (c *Controller) notify(from, to Stage) {
	c.logger.Debug("Boot stage changed", zap.String("from", string(from)), zap.String("to", string(to)))
	if c.listener != nil {
		c.listener.StageChanged(from, to)
	}
}
