package spoke

import (
	"log/slog"

	"github.com/oliverbestmann/spoke/internal/tick"
)

type config struct {
	logger         *slog.Logger
	entities       EntityAllocator
	checkThreshold uint32
	startTick      tick.Tick
	timingStats    bool
}

func defaultConfig() config {
	return config{
		logger:         slog.Default(),
		checkThreshold: tick.CheckThreshold,
		startTick:      1,
	}
}

// Option configures a World created by NewWorld.
type Option func(c *config)

// WithLogger sets the logger the world reports to. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEntityAllocator replaces the default Entities allocator.
func WithEntityAllocator(entities EntityAllocator) Option {
	return func(c *config) {
		c.entities = entities
	}
}

// WithCheckThreshold sets the number of cycles between two clamps of all
// change ticks. Values larger than tick.CheckThreshold are capped, as
// the tick comparison would not be correct anymore.
func WithCheckThreshold(cycles uint32) Option {
	return func(c *config) {
		c.checkThreshold = max(1, min(cycles, tick.CheckThreshold))
	}
}

// WithStartTick sets the tick of the first cycle.
func WithStartTick(start tick.Tick) Option {
	return func(c *config) {
		c.startTick = start
	}
}

// WithTimingStats enables collecting per system timings, see World.TimingStats.
func WithTimingStats() Option {
	return func(c *config) {
		c.timingStats = true
	}
}
