package query

import (
	"fmt"

	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/store"
	"github.com/oliverbestmann/spoke/internal/tick"
)

type Op uint8

const (
	// With requires the entity to have a value in the column
	With Op = iota + 1

	// Without requires the entity to not have a value in the column
	Without

	// Added requires the value in the column to be added within the window
	Added

	// Changed requires the value in the column to be changed within the window
	Changed
)

func (op Op) String() string {
	switch op {
	case With:
		return "With"
	case Without:
		return "Without"
	case Added:
		return "Added"
	case Changed:
		return "Changed"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Filter is a single term of a query. All filters of a query are combined with AND.
type Filter struct {
	Op     Op
	Column store.Column
}

func (f *Filter) changeKind() (change.Kind, bool) {
	switch f.Op {
	case Added:
		return change.Added, true
	case Changed:
		return change.Changed, true
	default:
		return 0, false
	}
}

// MayMatchColumn checks filters that can be decided for the whole column.
// Returns false if no entity can pass this filter within the window.
func (f *Filter) MayMatchColumn(window tick.Window) bool {
	kind, ok := f.changeKind()
	if !ok {
		return true
	}

	return f.Column.MayMatch(kind, window)
}

// Matches evaluates the filter for a single entity. If the filter targets the
// column that produced the entity, the record of the entity is passed in as
// driverRecord to skip a second lookup.
func (f *Filter) Matches(window tick.Window, entityId store.EntityId, driver store.Column, driverRecord change.Record) bool {
	switch f.Op {
	case With:
		return f.Column == driver || f.Column.Contains(entityId)

	case Without:
		return f.Column != driver && !f.Column.Contains(entityId)

	case Added, Changed:
		kind, _ := f.changeKind()

		record := driverRecord
		if f.Column != driver {
			var ok bool
			record, ok = f.Column.Record(entityId)
			if !ok {
				return false
			}
		}

		return change.EvaluateWindow(record, window, kind)

	default:
		panic(fmt.Sprintf("unknown filter op %s", f.Op))
	}
}
