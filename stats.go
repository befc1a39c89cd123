package spoke

import (
	"slices"
	"time"
)

type Timings struct {
	Count         int
	Latest        time.Duration
	MovingAverage time.Duration
	Min, Max      time.Duration
}

func (t Timings) Add(d time.Duration) Timings {
	t.Latest = d

	if t.Count == 0 {
		t.Min = d
		t.Max = d
		t.MovingAverage = d
	} else {
		t.Min = min(t.Min, d)
		t.Max = max(t.Max, d)
		t.MovingAverage = (95*t.MovingAverage + 5*d) / 100
	}

	t.Count += 1

	return t
}

// TimingStats collects the run time of systems by name.
type TimingStats struct {
	BySystem map[string]Timings
	order    []string
}

func NewTimingStats() TimingStats {
	return TimingStats{
		BySystem: map[string]Timings{},
	}
}

// Record adds a measurement for the named system.
func (t *TimingStats) Record(name string, d time.Duration) {
	if _, ok := t.BySystem[name]; !ok {
		t.order = append(t.order, name)
	}

	t.BySystem[name] = t.BySystem[name].Add(d)
}

// Systems returns the names of all measured systems in the order they were first seen.
func (t *TimingStats) Systems() []string {
	return slices.Clone(t.order)
}
