package spoke

import (
	"errors"
)

type Command func(world *World) error

// Commands queues structural changes to the world. Running systems must not spawn
// or despawn entities, or add or remove components directly, as that would invalidate
// queries other systems are iterating. Commands are applied once the system finished.
type Commands struct {
	queue []Command
}

// Queue adds a command to the queue.
func (c *Commands) Queue(command Command) *Commands {
	c.queue = append(c.queue, command)
	return c
}

// Spawn queues the spawn of a new entity.
func (c *Commands) Spawn(components ...ErasedComponent) *Commands {
	return c.Queue(func(world *World) error {
		_, err := world.Spawn(components...)
		return err
	})
}

// Despawn queues the removal of an entity.
func (c *Commands) Despawn(entityId EntityId) *Commands {
	return c.Queue(func(world *World) error {
		return world.Despawn(entityId)
	})
}

// Insert queues the insertion of components into an existing entity.
func (c *Commands) Insert(entityId EntityId, components ...ErasedComponent) *Commands {
	return c.Queue(func(world *World) error {
		return world.Insert(entityId, components...)
	})
}

// Remove queues the removal of a component from an entity.
func (c *Commands) Remove(entityId EntityId, ty *ComponentType) *Commands {
	return c.Queue(func(world *World) error {
		return world.RemoveType(entityId, ty)
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.queue)
}

// apply runs all queued commands against the world and resets the queue.
// All commands are applied even if some of them fail.
func (c *Commands) apply(world *World) error {
	var errs []error

	for _, command := range c.queue {
		if err := command(world); err != nil {
			errs = append(errs, err)
		}
	}

	// reset the queue after applying it
	c.queue = c.queue[:0]

	return errors.Join(errs...)
}
