package spoke

import (
	"sync/atomic"

	"github.com/oliverbestmann/spoke/internal/set"
	"github.com/oliverbestmann/spoke/internal/store"
)

type EntityId = store.EntityId

const NoEntityId = EntityId(0)

// EntityAllocator hands out entity ids to a World and tells it which of them are alive.
type EntityAllocator interface {
	// Reserve returns a new EntityId. It must be safe to call concurrently.
	Reserve() EntityId

	// Activate marks a reserved id as alive.
	Activate(entityId EntityId)

	// Free marks the entity as dead. Returns false if it was not alive.
	Free(entityId EntityId) bool

	// Contains reports whether the entity is alive.
	Contains(entityId EntityId) bool
}

// Entities is the default EntityAllocator. Ids are handed out sequentially
// and never reused.
type Entities struct {
	seq   atomic.Uint32
	alive set.Set[EntityId]
}

func (e *Entities) Reserve() EntityId {
	return EntityId(e.seq.Add(1))
}

func (e *Entities) Activate(entityId EntityId) {
	e.alive.Insert(entityId)
}

func (e *Entities) Free(entityId EntityId) bool {
	return e.alive.Remove(entityId)
}

func (e *Entities) Contains(entityId EntityId) bool {
	return e.alive.Has(entityId)
}

// Len returns the number of alive entities.
func (e *Entities) Len() int {
	return e.alive.Len()
}
