package store

import (
	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/tick"
)

type Row uint32

// Column is the type erased view of a component store. Queries only ever use
// this interface, as it does not provide any way to modify change records.
type Column interface {
	// Contains reports whether the entity holds a value in this column.
	Contains(entityId EntityId) bool

	// Record returns the change record of the entities value.
	Record(entityId EntityId) (change.Record, bool)

	// Remove deletes the value and its change record.
	Remove(entityId EntityId) error

	// InsertValue is the type erased version of Typed.Insert. The value must
	// either be of the columns type or a pointer to it.
	InsertValue(at tick.Tick, entityId EntityId, value any) error

	// Iter returns a cursor over all values in storage order.
	Iter() Iter

	// MayMatch returns false if no value in the column can match a predicate
	// of the given kind within the window. A column is free to always return true.
	MayMatch(kind change.Kind, window tick.Window) bool

	// CheckTicks clamps all change records relative to the reference tick and
	// returns the number of records that were modified.
	CheckTicks(reference tick.Tick) int

	Len() int
}

// Typed is a Column that provides typed access to its values.
// Pointers returned by Get and GetMut stay valid until the next
// structural change of the column, e.g. an Insert or Remove.
type Typed[C any] interface {
	Column

	// Insert adds the value for the entity, stamping both ticks with at.
	Insert(at tick.Tick, entityId EntityId, value C) error

	// Replace overwrites an existing value and marks it as changed.
	Replace(at tick.Tick, entityId EntityId, value C) error

	// Get returns a pointer to the value. The change record is not touched.
	Get(entityId EntityId) (*C, error)

	// GetMut returns a pointer to the value and marks it as changed at the given tick,
	// regardless of whether the value is actually written to.
	GetMut(at tick.Tick, entityId EntityId) (*C, error)
}

// Iter walks the entities of a column in storage order.
// An Iter is not restartable and must not outlive structural changes of its column.
type Iter struct {
	entities []EntityId
	records  []change.Record
	row      Row
}

// Next returns the next entity together with its change record.
func (it *Iter) Next() (EntityId, change.Record, bool) {
	if int(it.row) >= len(it.entities) {
		return 0, change.Record{}, false
	}

	row := it.row
	it.row += 1

	return it.entities[row], it.records[row], true
}

// Remaining returns the number of entities the iterator will still yield.
func (it *Iter) Remaining() int {
	return len(it.entities) - int(it.row)
}
