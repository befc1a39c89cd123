package spoke

import (
	"fmt"
	"iter"

	"github.com/oliverbestmann/spoke/internal/query"
	"github.com/oliverbestmann/spoke/internal/store"
)

// Filter restricts the entities a Query yields. All filters of
// a query must match for an entity to be yielded.
type Filter struct {
	op query.Op
	ty *ComponentType
}

func (f Filter) String() string {
	return fmt.Sprintf("%s[%s]", f.op, f.ty)
}

// ComponentType returns the component type the filter looks at.
func (f Filter) ComponentType() *ComponentType {
	return f.ty
}

// With requires the entity to have a component of type C.
func With[C IsComponent[C]]() Filter {
	return Filter{op: query.With, ty: ComponentTypeOf[C]()}
}

// Without requires the entity to not have a component of type C.
func Without[C IsComponent[C]]() Filter {
	return Filter{op: query.Without, ty: ComponentTypeOf[C]()}
}

// Added requires the component of type C to be added within the query window.
func Added[C IsComponent[C]]() Filter {
	return Filter{op: query.Added, ty: ComponentTypeOf[C]()}
}

// Changed requires the component of type C to be mutably accessed within the query window.
// A freshly added component also counts as changed.
func Changed[C IsComponent[C]]() Filter {
	return Filter{op: query.Changed, ty: ComponentTypeOf[C]()}
}

// Query iterates all entities with a component of type C that pass the filters.
// The iteration order is the storage order of C.
type Query[C IsComponent[C]] struct {
	column store.Typed[C]
	inner  *query.Query
}

// NewQuery creates a query over all entities of the world holding a C.
// A query can be reused for any number of passes.
func NewQuery[C IsComponent[C]](w *World, filters ...Filter) (*Query[C], error) {
	return newQuery[C](w.column, filters)
}

func newQuery[C IsComponent[C]](columnOf func(*ComponentType) store.Column, filters []Filter) (*Query[C], error) {
	target, ok := columnOf(ComponentTypeOf[C]()).(store.Typed[C])
	if !ok {
		return nil, fmt.Errorf("column of %s has unexpected type", ComponentTypeOf[C]())
	}

	var innerFilters []query.Filter
	for _, filter := range filters {
		innerFilters = append(innerFilters, query.Filter{
			Op:     filter.op,
			Column: columnOf(filter.ty),
		})
	}

	inner, err := query.New(target, innerFilters...)
	if err != nil {
		return nil, err
	}

	return &Query[C]{column: target, inner: inner}, nil
}

// Entities yields the ids of all matching entities within the window.
// Each call starts a new pass.
func (q *Query[C]) Entities(window Window) iter.Seq[EntityId] {
	return q.inner.Iter(window).Seq()
}

// Items yields the matching entities together with a copy of their component.
func (q *Query[C]) Items(window Window) iter.Seq2[EntityId, C] {
	return func(yield func(EntityId, C) bool) {
		for entityId := range q.Entities(window) {
			value, err := q.column.Get(entityId)
			if err != nil {
				panic(fmt.Sprintf("query yielded entity %s without value: %s", entityId, err))
			}

			if !yield(entityId, *value) {
				return
			}
		}
	}
}

// Count returns the number of matching entities within the window.
func (q *Query[C]) Count(window Window) int {
	return q.inner.Count(window)
}
