package tick

import (
	"math"
	"strconv"
)

// Tick counts update cycles of a world. It wraps around at 2^32, so two ticks
// must only ever be compared relative to a reference tick, see IsNewerThan.
type Tick uint32

const (
	// CheckThreshold is the number of ticks after which all stored ticks
	// must be clamped using Clamp. Doing so at least once every CheckThreshold
	// ticks guarantees that no tick ever becomes older than MaxChangeAge.
	CheckThreshold uint32 = 518_400_000

	// MaxChangeAge is the maximum age a tick can have relative to the current tick
	// before it is clamped. Ages are capped to this value during comparison.
	MaxChangeAge uint32 = math.MaxUint32 - (2*CheckThreshold - 1)
)

// Since returns the number of ticks that have passed between t and the reference,
// computed using wrapping subtraction.
func (t Tick) Since(reference Tick) uint32 {
	return uint32(reference - t)
}

// IsNewerThan reports whether t happened strictly after other when looking back from
// reference. Both ages are capped to MaxChangeAge. A tick that lies ahead of the
// reference has a huge wrapped age and is never considered newer.
func (t Tick) IsNewerThan(other Tick, reference Tick) bool {
	ageOfTick := min(t.Since(reference), MaxChangeAge)
	ageOfOther := min(other.Since(reference), MaxChangeAge)
	return ageOfTick < ageOfOther
}

// Clamp moves t forward so that it is at most MaxChangeAge ticks older than
// the reference. Returns true if t was modified.
func (t *Tick) Clamp(reference Tick) bool {
	if t.Since(reference) <= MaxChangeAge {
		return false
	}

	*t = reference - Tick(MaxChangeAge)
	return true
}

func (t Tick) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// Clock holds the current tick of a world. It is only advanced by a single
// writer, once per update cycle.
type Clock struct {
	current Tick
}

// NewClock returns a clock starting at the given tick.
func NewClock(start Tick) Clock {
	return Clock{current: start}
}

// Current returns the current tick.
func (c *Clock) Current() Tick {
	return c.current
}

// Advance moves the clock one tick forward and returns the new tick.
func (c *Clock) Advance() Tick {
	c.current += 1
	return c.current
}

// Window is the pair of ticks a system runs with. A change is visible
// to the system if it happened after LastRun and not after ThisRun.
type Window struct {
	LastRun Tick
	ThisRun Tick
}

// Contains reports whether the tick falls into the window.
func (w Window) Contains(t Tick) bool {
	return t.IsNewerThan(w.LastRun, w.ThisRun)
}

// Initial returns the LastRun tick for a system that has never run before. Everything
// that exists in the world at the systems first run is newer than this tick.
func Initial(current Tick) Tick {
	return current - Tick(MaxChangeAge)
}
