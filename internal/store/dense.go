package store

import (
	"fmt"

	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/tick"
)

// dense holds values and their change records in parallel slices.
// Both backends share it and only differ in how they map an entity to a row.
type dense[C any] struct {
	entities []EntityId
	records  []change.Record
	values   []C
}

func (d *dense[C]) Len() int {
	return len(d.entities)
}

func (d *dense[C]) push(at tick.Tick, entityId EntityId, value C) Row {
	row := Row(len(d.entities))

	d.entities = append(d.entities, entityId)
	d.records = append(d.records, change.NewRecord(at))
	d.values = append(d.values, value)

	return row
}

// swapRemove removes the given row by moving the last row into its place.
// Returns the entity that now lives at row, if any was moved.
func (d *dense[C]) swapRemove(row Row) (moved EntityId, ok bool) {
	last := Row(len(d.entities) - 1)

	if row != last {
		d.entities[row] = d.entities[last]
		d.records[row] = d.records[last]
		d.values[row] = d.values[last]
		moved, ok = d.entities[row], true
	}

	// clear the value so we do not keep any pointers alive
	var zero C
	d.values[last] = zero

	d.entities = d.entities[:last]
	d.records = d.records[:last]
	d.values = d.values[:last]

	return moved, ok
}

func (d *dense[C]) Iter() Iter {
	return Iter{
		entities: d.entities,
		records:  d.records,
	}
}

func (d *dense[C]) checkTicks(reference tick.Tick) int {
	var count int

	for idx := range d.records {
		if d.records[idx].Clamp(reference) {
			count++
		}
	}

	return count
}

func toValue[C any](value any) C {
	switch value := value.(type) {
	case C:
		return value
	case *C:
		return *value
	default:
		var c C
		var ptrC *C
		panic(fmt.Errorf("got type %T, expected either %T or %T", value, c, ptrC))
	}
}
