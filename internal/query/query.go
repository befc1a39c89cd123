package query

import (
	"errors"
	"iter"

	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/store"
	"github.com/oliverbestmann/spoke/internal/tick"
)

var ErrNoTarget = errors.New("query has no target column")

// Query iterates the entities of a target column and yields those
// that pass all of its filters.
type Query struct {
	target  store.Column
	filters []Filter
}

// New creates a query over the entities of the target column.
func New(target store.Column, filters ...Filter) (*Query, error) {
	if target == nil {
		return nil, ErrNoTarget
	}

	for _, filter := range filters {
		if filter.Column == nil {
			return nil, errors.New("filter " + filter.Op.String() + " has no column")
		}
	}

	return &Query{target: target, filters: filters}, nil
}

// Iter starts a new pass over the query for the given window.
// Evaluating a query never modifies any change record.
func (q *Query) Iter(window tick.Window) *Iter {
	it := &Iter{
		query:  q,
		window: window,
	}

	for idx := range q.filters {
		if !q.filters[idx].MayMatchColumn(window) {
			// nothing in this column can pass the filter,
			// no need to look at any entity
			return it
		}
	}

	it.inner = q.target.Iter()

	return it
}

// Count returns the number of entities matching the query within the window.
func (q *Query) Count(window tick.Window) int {
	var count int

	it := q.Iter(window)
	for {
		if _, ok := it.Next(); !ok {
			return count
		}

		count++
	}
}

func (q *Query) matches(window tick.Window, entityId store.EntityId, record change.Record) bool {
	for idx := range q.filters {
		if !q.filters[idx].Matches(window, entityId, q.target, record) {
			return false
		}
	}

	return true
}

// Iter is a single, non restartable pass over a query.
type Iter struct {
	query  *Query
	window tick.Window
	inner  store.Iter
}

// Next returns the next matching entity.
func (it *Iter) Next() (store.EntityId, bool) {
	for {
		entityId, record, ok := it.inner.Next()
		if !ok {
			return 0, false
		}

		if it.query.matches(it.window, entityId, record) {
			return entityId, true
		}
	}
}

// Seq adapts the iterator to an iter.Seq.
func (it *Iter) Seq() iter.Seq[store.EntityId] {
	return func(yield func(store.EntityId) bool) {
		for {
			entityId, ok := it.Next()
			if !ok {
				return
			}

			if !yield(entityId) {
				return
			}
		}
	}
}
