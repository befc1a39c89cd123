package store

import (
	"fmt"
	"slices"

	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/tick"
)

// Table is the dense backend. Entities are mapped to rows using a flat
// slice indexed directly by EntityId, values are stored contiguously.
// It additionally tracks the newest Added and Changed tick of the column,
// which lets queries skip the column entirely if nothing can match.
//
// Use Table for components that most entities have.
type Table[C any] struct {
	dense[C]

	// row+1 of each entity, zero if the entity is not in the table
	rows []Row

	lastAdded   tick.Tick
	lastChanged tick.Tick
}

var _ Typed[struct{}] = (*Table[struct{}])(nil)

func NewTable[C any]() *Table[C] {
	return &Table[C]{}
}

func (t *Table[C]) row(entityId EntityId) (Row, bool) {
	if int(entityId) >= len(t.rows) {
		return 0, false
	}

	row := t.rows[entityId]
	if row == 0 {
		return 0, false
	}

	return row - 1, true
}

func (t *Table[C]) setRow(entityId EntityId, row Row) {
	if int(entityId) >= len(t.rows) {
		t.rows = slices.Grow(t.rows, int(entityId)+1-len(t.rows))
		t.rows = t.rows[:cap(t.rows)]
	}

	t.rows[entityId] = row + 1
}

func (t *Table[C]) Contains(entityId EntityId) bool {
	_, ok := t.row(entityId)
	return ok
}

func (t *Table[C]) Record(entityId EntityId) (change.Record, bool) {
	row, ok := t.row(entityId)
	if !ok {
		return change.Record{}, false
	}

	return t.records[row], true
}

func (t *Table[C]) Insert(at tick.Tick, entityId EntityId, value C) error {
	if t.Contains(entityId) {
		return fmt.Errorf("insert into entity %s: %w", entityId, ErrDuplicateInsert)
	}

	row := t.push(at, entityId, value)
	t.setRow(entityId, row)

	t.lastAdded = at
	t.lastChanged = at

	return nil
}

func (t *Table[C]) InsertValue(at tick.Tick, entityId EntityId, value any) error {
	return t.Insert(at, entityId, toValue[C](value))
}

func (t *Table[C]) Replace(at tick.Tick, entityId EntityId, value C) error {
	row, ok := t.row(entityId)
	if !ok {
		return fmt.Errorf("replace in entity %s: %w", entityId, ErrMissingComponent)
	}

	t.values[row] = value
	t.markChanged(row, at)

	return nil
}

func (t *Table[C]) Get(entityId EntityId) (*C, error) {
	row, ok := t.row(entityId)
	if !ok {
		return nil, fmt.Errorf("get from entity %s: %w", entityId, ErrMissingComponent)
	}

	return &t.values[row], nil
}

func (t *Table[C]) GetMut(at tick.Tick, entityId EntityId) (*C, error) {
	row, ok := t.row(entityId)
	if !ok {
		return nil, fmt.Errorf("get mutable from entity %s: %w", entityId, ErrMissingComponent)
	}

	t.markChanged(row, at)

	return &t.values[row], nil
}

func (t *Table[C]) markChanged(row Row, at tick.Tick) {
	t.records[row].MarkChanged(at)
	t.lastChanged = at
}

func (t *Table[C]) Remove(entityId EntityId) error {
	row, ok := t.row(entityId)
	if !ok {
		return fmt.Errorf("remove from entity %s: %w", entityId, ErrMissingComponent)
	}

	t.rows[entityId] = 0

	if moved, ok := t.swapRemove(row); ok {
		t.rows[moved] = row + 1
	}

	return nil
}

func (t *Table[C]) MayMatch(kind change.Kind, window tick.Window) bool {
	if t.Len() == 0 {
		return false
	}

	summary := change.Record{Added: t.lastAdded, Changed: t.lastChanged}

	// the summary only knows the newest tick. For a window that ends
	// before it, older values might still match.
	if summary.TickOf(kind).Since(window.ThisRun) > tick.MaxChangeAge {
		return true
	}

	return change.EvaluateWindow(summary, window, kind)
}

func (t *Table[C]) CheckTicks(reference tick.Tick) int {
	t.lastAdded.Clamp(reference)
	t.lastChanged.Clamp(reference)

	return t.checkTicks(reference)
}
