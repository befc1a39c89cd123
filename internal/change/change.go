package change

import (
	"fmt"

	"github.com/oliverbestmann/spoke/internal/tick"
)

// Kind selects which tick of a Record a predicate looks at.
type Kind uint8

const (
	Added Kind = iota + 1
	Changed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "Added"
	case Changed:
		return "Changed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Record holds the change ticks of a single component value.
type Record struct {
	// Added is the tick the component was inserted at. It never changes afterwards.
	Added tick.Tick

	// Changed is the tick of the last mutable access to the component.
	Changed tick.Tick
}

// NewRecord creates a record for a component inserted at the given tick.
func NewRecord(at tick.Tick) Record {
	return Record{Added: at, Changed: at}
}

// MarkChanged stamps the record as changed at the given tick.
func (r *Record) MarkChanged(at tick.Tick) {
	r.Changed = at
}

// TickOf returns the tick a predicate of the given kind inspects.
func (r *Record) TickOf(kind Kind) tick.Tick {
	if kind == Added {
		return r.Added
	}

	return r.Changed
}

// Clamp clamps both ticks relative to the reference tick.
func (r *Record) Clamp(reference tick.Tick) bool {
	added := r.Added.Clamp(reference)
	changed := r.Changed.Clamp(reference)
	return added || changed
}

// Evaluate reports whether the record counts as Added or Changed
// for a system that last ran at lastRun and is now running at thisRun.
func Evaluate(record Record, lastRun, thisRun tick.Tick, kind Kind) bool {
	switch kind {
	case Added:
		return record.Added.IsNewerThan(lastRun, thisRun)
	case Changed:
		return record.Changed.IsNewerThan(lastRun, thisRun)
	default:
		return false
	}
}

// EvaluateWindow is Evaluate using the ticks of a tick.Window.
func EvaluateWindow(record Record, window tick.Window, kind Kind) bool {
	return Evaluate(record, window.LastRun, window.ThisRun, kind)
}
