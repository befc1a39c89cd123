package store

import (
	"fmt"

	"github.com/kamstrup/intmap"
	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/tick"
)

// Sparse is a sparse set. It maps entities to rows using a hash map keyed by
// EntityId, so memory usage only depends on the number of values stored, not
// on the largest EntityId. Iteration order is stable until the next Remove.
//
// Use Sparse for components that only few entities have.
type Sparse[C any] struct {
	dense[C]
	index *intmap.Map[EntityId, Row]
}

var _ Typed[struct{}] = (*Sparse[struct{}])(nil)

func NewSparse[C any]() *Sparse[C] {
	return &Sparse[C]{
		index: intmap.New[EntityId, Row](64),
	}
}

func (s *Sparse[C]) Contains(entityId EntityId) bool {
	_, ok := s.index.Get(entityId)
	return ok
}

func (s *Sparse[C]) Record(entityId EntityId) (change.Record, bool) {
	row, ok := s.index.Get(entityId)
	if !ok {
		return change.Record{}, false
	}

	return s.records[row], true
}

func (s *Sparse[C]) Insert(at tick.Tick, entityId EntityId, value C) error {
	if s.Contains(entityId) {
		return fmt.Errorf("insert into entity %s: %w", entityId, ErrDuplicateInsert)
	}

	row := s.push(at, entityId, value)
	s.index.Put(entityId, row)

	return nil
}

func (s *Sparse[C]) InsertValue(at tick.Tick, entityId EntityId, value any) error {
	return s.Insert(at, entityId, toValue[C](value))
}

func (s *Sparse[C]) Replace(at tick.Tick, entityId EntityId, value C) error {
	row, ok := s.index.Get(entityId)
	if !ok {
		return fmt.Errorf("replace in entity %s: %w", entityId, ErrMissingComponent)
	}

	s.values[row] = value
	s.records[row].MarkChanged(at)

	return nil
}

func (s *Sparse[C]) Get(entityId EntityId) (*C, error) {
	row, ok := s.index.Get(entityId)
	if !ok {
		return nil, fmt.Errorf("get from entity %s: %w", entityId, ErrMissingComponent)
	}

	return &s.values[row], nil
}

func (s *Sparse[C]) GetMut(at tick.Tick, entityId EntityId) (*C, error) {
	row, ok := s.index.Get(entityId)
	if !ok {
		return nil, fmt.Errorf("get mutable from entity %s: %w", entityId, ErrMissingComponent)
	}

	s.records[row].MarkChanged(at)

	return &s.values[row], nil
}

func (s *Sparse[C]) Remove(entityId EntityId) error {
	row, ok := s.index.Get(entityId)
	if !ok {
		return fmt.Errorf("remove from entity %s: %w", entityId, ErrMissingComponent)
	}

	s.index.Del(entityId)

	if moved, ok := s.swapRemove(row); ok {
		s.index.Put(moved, row)
	}

	return nil
}

// MayMatch always returns true for non-empty sets, a sparse set does not
// keep a summary of its change ticks.
func (s *Sparse[C]) MayMatch(change.Kind, tick.Window) bool {
	return s.Len() > 0
}

func (s *Sparse[C]) CheckTicks(reference tick.Tick) int {
	return s.checkTicks(reference)
}
